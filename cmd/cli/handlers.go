// Command handlers for the wpconfig CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/wpconfig"
	"go.yaml.in/yaml/v3"
)

// DefaultShell is entered by run-and-enter when no command is given.
const DefaultShell = "/bin/sh"

// maxPositionalArgs bounds the scan of positional run-and-enter arguments.
const maxPositionalArgs = 64

func (m *Manager) newPlugin() (*wpconfig.Plugin, error) {
	return wpconfig.NewPlugin(m.opts,
		wpconfig.WithPluginLogger(m.logger),
		wpconfig.WithAudit(m.auditLogger),
		wpconfig.WithLookup(m.lookup),
	)
}

// handleRun materializes wp-config.php.
func (m *Manager) handleRun(ctx *orpheus.Context) error {
	_, err := m.runPlugin()
	return err
}

func (m *Manager) runPlugin() (*wpconfig.Report, error) {
	p, err := m.newPlugin()
	if err != nil {
		return nil, err
	}
	return p.Run()
}

// handleRunAndEnter runs the plugin and then execs the requested command,
// so the command becomes the container's main process.
func (m *Manager) handleRunAndEnter(ctx *orpheus.Context) error {
	argv := m.enterArgs
	if len(argv) == 0 {
		for i := 0; i < maxPositionalArgs; i++ {
			arg := ctx.GetArg(i)
			if arg == "" {
				break
			}
			argv = append(argv, arg)
		}
	}
	if len(argv) == 0 {
		argv = []string{DefaultShell}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return errors.Wrap(err, wpconfig.ErrCodeInvalidOptions, "command to enter not found").
			WithContext("command", argv[0])
	}

	if _, err := m.runPlugin(); err != nil {
		return err
	}

	// the audit trail must reach disk before the process image is replaced
	if err := m.auditLogger.Flush(); err != nil {
		m.logger.Warn("audit flush failed", "error", err)
	}

	m.logger.Info("entering command", "command", path)
	if err := m.exec(path, argv, os.Environ()); err != nil {
		return errors.Wrap(err, wpconfig.ErrCodeIOError, "failed to exec command").
			WithContext("command", path)
	}
	return nil
}

// handlePlan prints the outcome of a run as YAML without writing.
func (m *Manager) handlePlan(ctx *orpheus.Context) error {
	p, err := m.newPlugin()
	if err != nil {
		return err
	}
	plan, err := p.Prepare()
	if err != nil {
		return err
	}
	report, err := p.DryRun(plan)
	if err != nil {
		return err
	}
	out, err := report.YAML()
	if err != nil {
		return err
	}
	_, err = m.out.Write(out)
	return err
}

// handleCheck validates everything a run needs and reports problems.
func (m *Manager) handleCheck(ctx *orpheus.Context) error {
	result := m.opts.ValidateDetailed()
	for _, w := range result.Warnings {
		fmt.Fprintf(m.out, "warning: %s\n", w)
	}
	if !result.Valid {
		return m.opts.Validate()
	}

	p, err := m.newPlugin()
	if err != nil {
		return err
	}
	plan, err := p.Prepare()
	if err != nil {
		return err
	}
	report, err := p.DryRun(plan)
	if err != nil {
		return err
	}
	for _, name := range report.Placeholders {
		fmt.Fprintf(m.out, "warning: %s still holds the sample placeholder value\n", name)
	}

	source := "sample"
	if plan.Template.Existed {
		source = "existing"
	}
	fmt.Fprintf(m.out, "ok: %s (%s template %s)\n", m.opts.ConfigPath, source, plan.Template.Path)
	return nil
}

// handleSecret prints generated secrets.
func (m *Manager) handleSecret(ctx *orpheus.Context) error {
	length := ctx.GetFlagInt("length")

	if ctx.GetFlagBool("salts") {
		for _, s := range wpconfig.SecretSettings(wpconfig.DefaultSettings()) {
			secret, err := wpconfig.GenerateSecret(length)
			if err != nil {
				return err
			}
			fmt.Fprintf(m.out, "define( '%s', '%s' );\n", s.Name, secret)
		}
		return nil
	}

	count := ctx.GetFlagInt("count")
	if count <= 0 {
		return errors.New(wpconfig.ErrCodeInvalidOptions, fmt.Sprintf("count must be positive, got %d", count))
	}
	for i := 0; i < count; i++ {
		secret, err := wpconfig.GenerateSecret(length)
		if err != nil {
			return err
		}
		fmt.Fprintln(m.out, secret)
	}
	return nil
}

// handleAuditStats prints statistics of the configured audit trail.
func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	if m.auditLogger == nil {
		return errors.New(wpconfig.ErrCodeInvalidAuditConfig, "no audit file configured, use --audit-file")
	}
	stats, err := m.auditLogger.Stats()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, wpconfig.ErrCodeIOError, "failed to encode audit statistics")
	}
	_, err = m.out.Write(out)
	return err
}
