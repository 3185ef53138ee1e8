// plugin.go: Startup plugin lifecycle
//
// Prepare gathers inputs and checks them without touching the filesystem.
// Configure synthesizes, writes and fixes permissions. A service framework
// calls Prepare for every plugin before calling any Configure, so a bad
// environment stops the container before anything is written.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"log/slog"
	"os"
)

// Plan is the validated input of a Configure call.
type Plan struct {
	Template Template
	Values   Values
}

// Plugin materializes wp-config.php.
type Plugin struct {
	opts   Options
	synth  *Synthesizer
	audit  *AuditLogger
	logger *slog.Logger
	lookup LookupFunc
	fixer  func(root, account string) (*PermissionReport, error)

	synthOpts []SynthesizerOption
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithPluginLogger sets the logger used by the plugin and its synthesizer.
func WithPluginLogger(logger *slog.Logger) PluginOption {
	return func(p *Plugin) { p.logger = logger }
}

// WithAudit records every run in the given audit trail.
func WithAudit(audit *AuditLogger) PluginOption {
	return func(p *Plugin) { p.audit = audit }
}

// WithLookup replaces os.LookupEnv as the source of WORDPRESS_* variables.
func WithLookup(lookup LookupFunc) PluginOption {
	return func(p *Plugin) { p.lookup = lookup }
}

// WithSynthesizerOptions passes options to the plugin's Synthesizer.
func WithSynthesizerOptions(opts ...SynthesizerOption) PluginOption {
	return func(p *Plugin) { p.synthOpts = append(p.synthOpts, opts...) }
}

// NewPlugin validates opts and builds a Plugin.
func NewPlugin(opts Options, options ...PluginOption) (*Plugin, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p := &Plugin{
		opts:   opts,
		logger: discardLogger(),
		lookup: os.LookupEnv,
		fixer: func(root, account string) (*PermissionReport, error) {
			return NewPermissionFixer(root, account).Fix()
		},
	}
	for _, o := range options {
		o(p)
	}
	p.synth = NewSynthesizer(append([]SynthesizerOption{WithLogger(p.logger)}, p.synthOpts...)...)
	return p, nil
}

// Options returns the effective options.
func (p *Plugin) Options() Options {
	return p.opts
}

// Prepare loads the template and the supplied values and, for a fresh
// configuration, checks that every required value is present.
func (p *Plugin) Prepare() (*Plan, error) {
	src, err := NewEnvSource(p.lookup, p.opts.EnvFiles...)
	if err != nil {
		return nil, err
	}

	tmpl, err := LoadTemplate(p.opts.ConfigPath, p.opts.SamplePath)
	if err != nil {
		p.audit.LogFailure(p.opts.ConfigPath, err)
		return nil, err
	}
	p.logger.Info("configuration template loaded", "path", tmpl.Path, "existing", tmpl.Existed)

	values, err := LoadValuesFromEnv(p.synth.Settings(), src.Lookup)
	if err != nil {
		p.audit.LogFailure(p.opts.ConfigPath, err)
		return nil, err
	}
	p.logger.Debug("environment values loaded", "supplied", len(values))

	if !tmpl.Existed {
		if err := CheckRequired(p.synth.Settings(), values); err != nil {
			p.audit.LogFailure(p.opts.ConfigPath, err)
			return nil, err
		}
	}

	return &Plan{Template: tmpl, Values: values}, nil
}

// DryRun synthesizes plan without writing anything.
func (p *Plugin) DryRun(plan *Plan) (*Report, error) {
	result, err := p.synth.Synthesize(plan.Template, plan.Values)
	if err != nil {
		return nil, err
	}
	return NewReport(p.opts.ConfigPath, plan.Template, result), nil
}

// Configure writes the configuration described by plan and fixes
// ownership of the web root. A permission failure is logged and only
// returned when StrictPermissions is set.
func (p *Plugin) Configure(plan *Plan) (*Report, error) {
	path := p.opts.ConfigPath
	p.audit.Log(AuditInfo, EventSynthesisStarted, path, "", "", map[string]interface{}{
		"template": plan.Template.Path,
		"existing": plan.Template.Existed,
	})

	result, err := p.synth.Synthesize(plan.Template, plan.Values)
	if err != nil {
		p.audit.LogFailure(path, err)
		return nil, err
	}

	if err := WriteConfigFile(path, result.Content); err != nil {
		p.audit.LogFailure(path, err)
		return nil, err
	}

	for _, a := range result.Assignments {
		p.audit.LogAssignment(path, a)
		if a.Action != ActionKeep {
			p.logger.Info("setting written", "setting", a.Setting.Name, "action", a.Action.String())
		}
	}
	if result.ProxyShimInserted {
		p.audit.Log(AuditInfo, EventProxyShim, path, "", "", nil)
	}
	p.audit.Log(AuditCritical, EventConfigWritten, path, "", "", nil)
	p.logger.Info("configuration written", "path", path, "proxy_shim", result.ProxyShimInserted)

	report := NewReport(path, plan.Template, result)
	report.Written = true

	if p.opts.SkipPermissions {
		return report, nil
	}

	perms, err := p.fixer(p.opts.WebRoot, p.opts.ServiceUser)
	report.Permissions = perms
	if err != nil {
		p.audit.Log(AuditWarn, EventPermissionsFixed, p.opts.WebRoot, "", "", map[string]interface{}{
			"error": err.Error(),
		})
		p.logger.Warn("permission fix incomplete", "root", p.opts.WebRoot, "error", err)
		if p.opts.StrictPermissions {
			return report, err
		}
		return report, nil
	}
	p.audit.Log(AuditInfo, EventPermissionsFixed, p.opts.WebRoot, "", "", map[string]interface{}{
		"directories": perms.Directories,
		"files":       perms.Files,
	})
	p.logger.Info("permissions fixed", "root", p.opts.WebRoot,
		"account", p.opts.ServiceUser, "directories", perms.Directories, "files", perms.Files)
	return report, nil
}

// Run is Prepare followed by Configure.
func (p *Plugin) Run() (*Report, error) {
	plan, err := p.Prepare()
	if err != nil {
		return nil, err
	}
	return p.Configure(plan)
}
