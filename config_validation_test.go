// config_validation_test.go: Tests for option validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"strings"
	"testing"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	result := DefaultOptions().ValidateDetailed()
	if !result.Valid {
		t.Fatalf("default options invalid: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if result.String() != "Options are valid" {
		t.Errorf("String() = %q", result.String())
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		substr string
	}{
		{"relative config path", func(o *Options) { o.ConfigPath = "wp-config.php" }, "ConfigPath must be an absolute path"},
		{"empty service user", func(o *Options) { o.ServiceUser = "" }, "ServiceUser is required"},
		{"unknown log level", func(o *Options) { o.LogLevel = "trace" }, "LogLevel must be one of"},
		{"sample equals config", func(o *Options) { o.SamplePath = o.ConfigPath }, "SamplePath must differ from ConfigPath"},
		{"empty env file entry", func(o *Options) { o.EnvFiles = []string{""} }, "EnvFiles[0] is required"},
		{"audit without file", func(o *Options) { o.Audit.Enabled = true }, "no audit file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			result := opts.ValidateDetailed()
			if result.Valid {
				t.Fatal("expected invalid options")
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.substr) {
				t.Errorf("errors %v do not mention %q", result.Errors, tt.substr)
			}

			err := opts.Validate()
			if ErrorCode(err) != ErrCodeInvalidOptions {
				t.Errorf("Validate() code = %q", ErrorCode(err))
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	opts := DefaultOptions()
	opts.SkipPermissions = true
	opts.StrictPermissions = true
	result := opts.ValidateDetailed()
	if !result.Valid || len(result.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.String(), "1 warning") {
		t.Errorf("String() = %q", result.String())
	}

	opts = DefaultOptions()
	opts.ConfigPath = "/etc/wordpress/wp-config.php"
	result = opts.ValidateDetailed()
	if !result.Valid || len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "outside web root") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestUnderRoot(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/var/www", "/var/www/html/wp-config.php", true},
		{"/var/www", "/var/www", true},
		{"/var/www", "/var/wwwx/wp-config.php", false},
		{"/var/www", "/etc/wp-config.php", false},
		{"/var/www", "/var/www/../wp-config.php", false},
	}
	for _, tt := range tests {
		if got := underRoot(tt.root, tt.path); got != tt.want {
			t.Errorf("underRoot(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}
