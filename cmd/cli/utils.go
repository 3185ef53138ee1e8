// Entrypoint helpers for the wpconfig CLI
//
// Main wires options, logging and the audit trail around a Manager and
// turns the outcome into a process exit code.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/agilira/wpconfig"
	"golang.org/x/sys/unix"
)

// Exit codes.
const (
	ExitOK                = 0
	ExitGeneral           = 1
	ExitCommandLine       = 2
	ExitMissingTemplate   = 3
	ExitIO                = 4
	ExitConfiguration     = 5
	ExitMalformedTemplate = 6
	ExitPermission        = 7
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch wpconfig.ErrorCode(err) {
	case wpconfig.ErrCodeMissingTemplate:
		return ExitMissingTemplate
	case wpconfig.ErrCodeIOError, wpconfig.ErrCodeAuditBackendFailure:
		return ExitIO
	case wpconfig.ErrCodeConfiguration:
		return ExitConfiguration
	case wpconfig.ErrCodeMalformedTemplate:
		return ExitMalformedTemplate
	case wpconfig.ErrCodePermission:
		return ExitPermission
	case wpconfig.ErrCodeInvalidOptions, wpconfig.ErrCodeInvalidAuditConfig:
		return ExitCommandLine
	default:
		return ExitGeneral
	}
}

// Runtime carries the process resources Main uses.
type Runtime struct {
	Lookup wpconfig.LookupFunc
	Stdout io.Writer
	Stderr io.Writer
	Exec   ExecFunc
}

// OSRuntime returns the real process environment.
func OSRuntime() Runtime {
	return Runtime{
		Lookup: os.LookupEnv,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Exec:   defaultExec,
	}
}

// Main runs the CLI for args (without the program name) and returns the
// exit code.
func Main(args []string, rt Runtime) int {
	if rt.Lookup == nil {
		rt.Lookup = os.LookupEnv
	}
	if rt.Stdout == nil {
		rt.Stdout = io.Discard
	}
	if rt.Stderr == nil {
		rt.Stderr = io.Discard
	}
	if rt.Exec == nil {
		rt.Exec = defaultExec
	}

	base, err := wpconfig.LoadOptionsFromEnv(wpconfig.DefaultOptions(), rt.Lookup)
	if err != nil {
		fmt.Fprintf(rt.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}

	global, rest := wpconfig.SplitGlobalArgs(args)
	om := wpconfig.NewOptionsManager("wpconfig", Version, base)
	opts, err := om.Parse(global)
	if err == wpconfig.ErrHelpRequested {
		om.PrintUsage()
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(rt.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}

	logger := wpconfig.NewLogger(rt.Stderr, opts.LogLevel)

	var auditLogger *wpconfig.AuditLogger
	if opts.Audit.Enabled {
		auditLogger, err = wpconfig.NewAuditLogger(opts.Audit)
		if err != nil {
			logger.Error("audit trail unavailable", "error", err)
			return ExitCode(err)
		}
		defer func() {
			if err := auditLogger.Close(); err != nil {
				logger.Warn("audit close failed", "error", err)
			}
		}()
	}

	m := NewManager(opts).
		WithLogger(logger).
		WithAudit(auditLogger).
		WithLookup(rt.Lookup).
		WithOutput(rt.Stdout).
		WithExec(rt.Exec)

	if err := m.Run(rest); err != nil {
		logger.Error("wpconfig failed",
			"code", wpconfig.ErrorCode(err),
			"name", wpconfig.SettingName(err),
			"error", err)
		return ExitCode(err)
	}
	return ExitOK
}

func defaultExec(argv0 string, argv []string, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}
