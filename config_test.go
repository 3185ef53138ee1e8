// config_test.go: Tests for options defaults and logger construction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithDefaults(t *testing.T) {
	opts := Options{ConfigPath: "/srv/wp-config.php"}.WithDefaults()

	if opts.ConfigPath != "/srv/wp-config.php" {
		t.Errorf("ConfigPath overwritten: %q", opts.ConfigPath)
	}
	if opts.SamplePath != DefaultSamplePath || opts.WebRoot != DefaultWebRoot {
		t.Errorf("paths not defaulted: %+v", opts)
	}
	if opts.ServiceUser != DefaultServiceUser || opts.LogLevel != DefaultLogLevel {
		t.Errorf("user or log level not defaulted: %+v", opts)
	}
	if opts.Audit.Enabled || opts.Audit.BufferSize != DefaultAuditConfig().BufferSize {
		t.Errorf("unexpected audit defaults %+v", opts.Audit)
	}

	opts = Options{Audit: AuditConfig{OutputFile: "/data/audit.db"}}.WithDefaults()
	if !opts.Audit.Enabled {
		t.Error("an audit file should enable the audit trail")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "setting", "DB_HOST")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "setting=DB_HOST") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
