// Package cli provides the command-line interface of the wp-config plugin.
//
// The binary is meant to be the entrypoint step of a WordPress container:
//
//	wpconfig run                          # write wp-config.php and exit
//	wpconfig run-and-enter -- apache2-foreground
//	wpconfig plan                         # dry run, YAML report on stdout
//	wpconfig check                        # validate inputs only
//	wpconfig secret --salts               # print fresh keys and salts
//	wpconfig --audit-file /data/audit.db audit stats
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/wpconfig"
)

// Version is reported by --version.
const Version = "1.0.0"

// ExecFunc replaces the current process, with the signature of unix.Exec.
type ExecFunc func(argv0 string, argv []string, envv []string) error

// Manager routes commands to the plugin.
type Manager struct {
	app         *orpheus.App
	opts        wpconfig.Options
	logger      *slog.Logger
	auditLogger *wpconfig.AuditLogger
	lookup      wpconfig.LookupFunc
	out         io.Writer
	exec        ExecFunc

	// enterArgs holds the command after "--" for run-and-enter.
	enterArgs []string
	// handlerErr is the last handler error as returned, before orpheus wraps it.
	handlerErr error
}

// NewManager creates a Manager for opts with every command registered.
func NewManager(opts wpconfig.Options) *Manager {
	app := orpheus.New("wpconfig").
		SetDescription("Materializes wp-config.php from the sample and WORDPRESS_* variables").
		SetVersion(Version)

	m := &Manager{
		app:    app,
		opts:   opts,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		lookup: os.LookupEnv,
		out:    os.Stdout,
		exec:   defaultExec,
	}

	m.setupLifecycleCommands()
	m.setupUtilityCommands()
	return m
}

// WithAudit records plugin runs in auditLogger.
func (m *Manager) WithAudit(auditLogger *wpconfig.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// WithLogger sets the structured logger.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	return m
}

// WithLookup replaces os.LookupEnv for WORDPRESS_* variables.
func (m *Manager) WithLookup(lookup wpconfig.LookupFunc) *Manager {
	m.lookup = lookup
	return m
}

// WithOutput redirects command output, stdout by default.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// WithExec replaces the process-replacing exec used by run-and-enter.
func (m *Manager) WithExec(fn ExecFunc) *Manager {
	m.exec = fn
	return m
}

// Run executes the command in args. Arguments after a "--" are kept for
// run-and-enter and not parsed as flags.
func (m *Manager) Run(args []string) error {
	for i, arg := range args {
		if arg == "--" {
			m.enterArgs = append([]string(nil), args[i+1:]...)
			args = args[:i]
			break
		}
	}
	m.handlerErr = nil
	if err := m.app.Run(args); err != nil {
		if m.handlerErr != nil {
			return m.handlerErr
		}
		return err
	}
	return nil
}

// track records a handler's error so Run can return it with its code intact.
func (m *Manager) track(h func(*orpheus.Context) error) func(*orpheus.Context) error {
	return func(ctx *orpheus.Context) error {
		err := h(ctx)
		m.handlerErr = err
		return err
	}
}

// setupLifecycleCommands registers the commands a container entrypoint uses.
func (m *Manager) setupLifecycleCommands() {
	runCmd := orpheus.NewCommand("run", "Write wp-config.php and fix permissions").
		SetHandler(m.track(m.handleRun))
	m.app.AddCommand(runCmd)

	enterCmd := orpheus.NewCommand("run-and-enter", "Run, then replace this process with a command (default /bin/sh)").
		SetHandler(m.track(m.handleRunAndEnter))
	m.app.AddCommand(enterCmd)

	planCmd := orpheus.NewCommand("plan", "Show what run would do without writing").
		SetHandler(m.track(m.handlePlan))
	m.app.AddCommand(planCmd)

	checkCmd := orpheus.NewCommand("check", "Validate options, template and environment").
		SetHandler(m.track(m.handleCheck))
	m.app.AddCommand(checkCmd)
}

// setupUtilityCommands registers secret generation and audit inspection.
func (m *Manager) setupUtilityCommands() {
	secretCmd := orpheus.NewCommand("secret", "Generate random keys and salts")
	secretCmd.SetHandler(m.track(m.handleSecret))
	secretCmd.AddIntFlag("length", "l", wpconfig.SecretLength, "Secret length")
	secretCmd.AddIntFlag("count", "c", 1, "Number of secrets")
	secretCmd.AddBoolFlag("salts", "s", false, "Print define() lines for every key and salt")
	m.app.AddCommand(secretCmd)

	auditCmd := orpheus.NewCommand("audit", "Audit trail inspection")
	auditCmd.Subcommand("stats", "Show audit trail statistics", m.track(m.handleAuditStats))
	m.app.AddCommand(auditCmd)
}
