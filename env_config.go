// env_config.go: Environment variable support for settings and options
//
// WORDPRESS_* variables supply setting values. WPCONFIG_* variables
// configure the plugin itself. Dotenv files can add both and never
// override the process environment.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/joho/godotenv"
)

// FileSuffix marks a variable whose value is the path of a file holding
// the real value, as with docker secrets.
const FileSuffix = "_FILE"

// LookupFunc reports the value of an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvSource layers dotenv file entries under a primary lookup.
type EnvSource struct {
	primary LookupFunc
	files   map[string]string
}

// NewEnvSource reads the given dotenv files. Later files override earlier
// ones; primary (os.LookupEnv when nil) overrides all of them.
func NewEnvSource(primary LookupFunc, files ...string) (*EnvSource, error) {
	if primary == nil {
		primary = os.LookupEnv
	}
	src := &EnvSource{primary: primary, files: map[string]string{}}
	for _, f := range files {
		entries, err := godotenv.Read(f)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeIOError, "failed to read env file").
				WithContext("path", f)
		}
		for k, v := range entries {
			src.files[k] = v
		}
	}
	return src, nil
}

// Lookup implements LookupFunc.
func (e *EnvSource) Lookup(key string) (string, bool) {
	if v, ok := e.primary(key); ok {
		return v, true
	}
	v, ok := e.files[key]
	return v, ok
}

// LoadValuesFromEnv reads the value of every setting from lookup. An empty
// variable counts as unset. When VAR is unset and VAR_FILE names a file,
// the file content with one trailing newline removed is used instead.
func LoadValuesFromEnv(settings []Setting, lookup LookupFunc) (Values, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	values := make(Values, len(settings))
	for _, s := range settings {
		direct, _ := lookup(s.EnvVar)
		path, _ := lookup(s.EnvVar + FileSuffix)

		switch {
		case direct != "" && path != "":
			return nil, newSettingError(ErrCodeConfiguration, s.EnvVar,
				fmt.Sprintf("both %s and %s%s are set", s.EnvVar, s.EnvVar, FileSuffix))
		case direct != "":
			values[s.Name] = direct
		case path != "":
			v, err := readSecretFile(path)
			if err != nil {
				return nil, &SettingError{Name: s.EnvVar + FileSuffix, Err: err}
			}
			if v != "" {
				values[s.Name] = v
			}
		}
	}
	return values, nil
}

func readSecretFile(path string) (string, error) {
	// #nosec G304 -- path comes from the operator's own environment
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, ErrCodeIOError, "failed to read secret file").
			WithContext("path", path)
	}
	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// Option environment variables.
const (
	EnvConfigPath        = "WPCONFIG_CONFIG_PATH"
	EnvSamplePath        = "WPCONFIG_SAMPLE_PATH"
	EnvWebRoot           = "WPCONFIG_WEB_ROOT"
	EnvServiceUser       = "WPCONFIG_SERVICE_USER"
	EnvEnvFiles          = "WPCONFIG_ENV_FILES"
	EnvSkipPermissions   = "WPCONFIG_SKIP_PERMISSIONS"
	EnvStrictPermissions = "WPCONFIG_STRICT_PERMISSIONS"
	EnvLogLevel          = "WPCONFIG_LOG_LEVEL"
	EnvAuditFile         = "WPCONFIG_AUDIT_FILE"
	EnvAuditMinLevel     = "WPCONFIG_AUDIT_MIN_LEVEL"
	EnvAuditBufferSize   = "WPCONFIG_AUDIT_BUFFER_SIZE"
)

// LoadOptionsFromEnv overlays WPCONFIG_* variables on base.
func LoadOptionsFromEnv(base Options, lookup LookupFunc) (Options, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	opts := base
	loadPathOptions(&opts, lookup)
	loadPermissionOptions(&opts, lookup)
	if err := loadAuditOptions(&opts, lookup); err != nil {
		return base, err
	}
	if v := getEnv(lookup, EnvLogLevel); v != "" {
		opts.LogLevel = strings.ToLower(v)
	}
	return opts.WithDefaults(), nil
}

func loadPathOptions(opts *Options, lookup LookupFunc) {
	if v := getEnv(lookup, EnvConfigPath); v != "" {
		opts.ConfigPath = v
	}
	if v := getEnv(lookup, EnvSamplePath); v != "" {
		opts.SamplePath = v
	}
	if v := getEnv(lookup, EnvWebRoot); v != "" {
		opts.WebRoot = v
	}
	if v := getEnv(lookup, EnvEnvFiles); v != "" {
		opts.EnvFiles = splitList(v)
	}
}

func loadPermissionOptions(opts *Options, lookup LookupFunc) {
	if v := getEnv(lookup, EnvServiceUser); v != "" {
		opts.ServiceUser = v
	}
	if v := getEnv(lookup, EnvSkipPermissions); v != "" {
		opts.SkipPermissions = parseBool(v)
	}
	if v := getEnv(lookup, EnvStrictPermissions); v != "" {
		opts.StrictPermissions = parseBool(v)
	}
}

func loadAuditOptions(opts *Options, lookup LookupFunc) error {
	if v := getEnv(lookup, EnvAuditFile); v != "" {
		opts.Audit.OutputFile = v
		opts.Audit.Enabled = true
	}
	if v := getEnv(lookup, EnvAuditMinLevel); v != "" {
		level, err := ParseAuditLevel(v)
		if err != nil {
			return err
		}
		opts.Audit.MinLevel = level
	}
	if v := getEnv(lookup, EnvAuditBufferSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New(ErrCodeInvalidOptions,
				fmt.Sprintf("invalid %s value %q", EnvAuditBufferSize, v))
		}
		opts.Audit.BufferSize = n
	}
	return nil
}

func getEnv(lookup LookupFunc, key string) string {
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool parses boolean values from environment variables
// Supports: true/false, 1/0, yes/no, on/off, enabled/disabled
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}
