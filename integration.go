// integration.go: Command-line options through FlashFlags
//
// Global flags precede the command name:
//
//	wpconfig --config-path /srv/wp-config.php --skip-permissions run
//
// Precedence is flags, then WPCONFIG_* variables, then defaults: the
// manager is built from options already overlaid with the environment and
// registers those values as flag defaults.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"strings"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/go-errors"
)

// Global flag names.
const (
	FlagConfigPath        = "config-path"
	FlagSamplePath        = "sample-path"
	FlagWebRoot           = "web-root"
	FlagServiceUser       = "service-user"
	FlagEnvFile           = "env-file"
	FlagSkipPermissions   = "skip-permissions"
	FlagStrictPermissions = "strict-permissions"
	FlagLogLevel          = "log-level"
	FlagAuditFile         = "audit-file"
	FlagAuditMinLevel     = "audit-min-level"
)

var boolFlags = map[string]bool{
	FlagSkipPermissions:   true,
	FlagStrictPermissions: true,
}

// ErrHelpRequested is returned by Parse for -h and --help.
var ErrHelpRequested = errors.New(ErrCodeInvalidOptions, "help requested")

// OptionsManager parses global flags into Options.
type OptionsManager struct {
	flags *flashflags.FlagSet
	base  Options
}

// NewOptionsManager registers every global flag with base as default.
func NewOptionsManager(appName, version string, base Options) *OptionsManager {
	base = base.WithDefaults()
	fs := flashflags.New(appName)
	fs.SetDescription("Materializes wp-config.php from the sample and WORDPRESS_* variables")
	fs.SetVersion(version)

	fs.String(FlagConfigPath, base.ConfigPath, "wp-config.php to read and write")
	fs.String(FlagSamplePath, base.SamplePath, "template used when the configuration does not exist")
	fs.String(FlagWebRoot, base.WebRoot, "directory whose ownership is fixed after writing")
	fs.String(FlagServiceUser, base.ServiceUser, "account that owns the web root")
	fs.StringSlice(FlagEnvFile, base.EnvFiles, "dotenv files read under the process environment")
	fs.Bool(FlagSkipPermissions, base.SkipPermissions, "do not touch ownership or modes")
	fs.Bool(FlagStrictPermissions, base.StrictPermissions, "fail when a path cannot be updated")
	fs.String(FlagLogLevel, base.LogLevel, "log level (debug|info|warn|error)")
	fs.String(FlagAuditFile, base.Audit.OutputFile, "audit trail file (.jsonl or SQLite)")
	fs.String(FlagAuditMinLevel, strings.ToLower(base.Audit.MinLevel.String()), "lowest audit level recorded")

	return &OptionsManager{flags: fs, base: base}
}

// Parse parses global flags. It returns ErrHelpRequested when help was asked for.
func (m *OptionsManager) Parse(args []string) (Options, error) {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return m.base, ErrHelpRequested
		}
	}

	if err := m.flags.Parse(args); err != nil {
		return m.base, errors.Wrap(err, ErrCodeInvalidOptions, "failed to parse command-line flags")
	}

	opts := m.base
	opts.ConfigPath = m.flags.GetString(FlagConfigPath)
	opts.SamplePath = m.flags.GetString(FlagSamplePath)
	opts.WebRoot = m.flags.GetString(FlagWebRoot)
	opts.ServiceUser = m.flags.GetString(FlagServiceUser)
	opts.EnvFiles = m.flags.GetStringSlice(FlagEnvFile)
	opts.SkipPermissions = m.flags.GetBool(FlagSkipPermissions)
	opts.StrictPermissions = m.flags.GetBool(FlagStrictPermissions)
	opts.LogLevel = strings.ToLower(m.flags.GetString(FlagLogLevel))
	opts.Audit.OutputFile = m.flags.GetString(FlagAuditFile)

	level, err := ParseAuditLevel(m.flags.GetString(FlagAuditMinLevel))
	if err != nil {
		return m.base, err
	}
	opts.Audit.MinLevel = level

	return opts.WithDefaults(), nil
}

// PrintUsage prints help for the global flags.
func (m *OptionsManager) PrintUsage() {
	m.flags.PrintHelp()
}

// FlagNames lists the registered global flags.
func (m *OptionsManager) FlagNames() []string {
	var names []string
	m.flags.VisitAll(func(flag *flashflags.Flag) {
		names = append(names, flag.Name())
	})
	return names
}

// SplitGlobalArgs separates leading global flags from the command and its
// arguments. Value flags consume the next argument unless written as
// --name=value; a lone "--" ends the global section.
func SplitGlobalArgs(args []string) (global, rest []string) {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			return args[:i], args[i+1:]
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") || boolFlags[name] || name == "h" || name == "help" {
			i++
			continue
		}
		i += 2
	}
	if i > len(args) {
		i = len(args)
	}
	return args[:i], args[i:]
}
