// config.go: Runtime options for the wp-config plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

// Default locations used by the official WordPress container images.
const (
	DefaultConfigPath  = "/var/www/html/wp-config.php"
	DefaultSamplePath  = "/var/www/html/wp-config-sample.php"
	DefaultWebRoot     = "/var/www"
	DefaultServiceUser = "www-data"
	DefaultLogLevel    = "info"
)

// Options carries every path and switch the plugin needs. Nothing is read
// from package-level state; callers build Options explicitly or through
// LoadOptionsFromEnv and OptionsManager.
type Options struct {
	// ConfigPath is the wp-config.php that is read when present and always written.
	ConfigPath string `validate:"required,startswith=/"`

	// SamplePath is the template used when ConfigPath does not exist.
	SamplePath string `validate:"required,startswith=/,nefield=ConfigPath"`

	// WebRoot is walked by the permission fixer.
	WebRoot string `validate:"required,startswith=/"`

	// ServiceUser owns everything under WebRoot after a run.
	ServiceUser string `validate:"required"`

	// EnvFiles are dotenv files merged under the process environment.
	EnvFiles []string `validate:"dive,required"`

	SkipPermissions   bool
	StrictPermissions bool

	LogLevel string `validate:"oneof=debug info warn error"`

	Audit AuditConfig
}

// DefaultOptions returns the options for the stock WordPress image layout.
func DefaultOptions() Options {
	return Options{
		ConfigPath:  DefaultConfigPath,
		SamplePath:  DefaultSamplePath,
		WebRoot:     DefaultWebRoot,
		ServiceUser: DefaultServiceUser,
		LogLevel:    DefaultLogLevel,
		Audit:       DefaultAuditConfig(),
	}
}

// WithDefaults fills every zero field with its default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.ConfigPath == "" {
		o.ConfigPath = d.ConfigPath
	}
	if o.SamplePath == "" {
		o.SamplePath = d.SamplePath
	}
	if o.WebRoot == "" {
		o.WebRoot = d.WebRoot
	}
	if o.ServiceUser == "" {
		o.ServiceUser = d.ServiceUser
	}
	if o.LogLevel == "" {
		o.LogLevel = d.LogLevel
	}
	if o.Audit.BufferSize <= 0 {
		o.Audit.BufferSize = d.Audit.BufferSize
	}
	if o.Audit.OutputFile != "" {
		o.Audit.Enabled = true
	}
	return o
}
