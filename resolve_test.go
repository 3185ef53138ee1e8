// resolve_test.go: Tests for the fallback policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"strings"
	"testing"
)

// counterSecrets returns predictable, distinct secrets.
func counterSecrets() SecretFunc {
	n := 0
	return func(length int) (string, error) {
		n++
		s := fmt.Sprintf("secret-%02d-", n)
		return s + strings.Repeat("x", length-len(s)), nil
	}
}

func requiredValues() Values {
	return Values{"DB_HOST": "db", "DB_USER": "wp", "DB_PASSWORD": "secret"}
}

func TestResolvePolicyTable(t *testing.T) {
	hostSetting := DefaultSettings()[0]
	nameSetting := DefaultSettings()[3]
	keySetting := DefaultSettings()[4]

	tests := []struct {
		name    string
		setting Setting
		values  Values
		existed bool
		action  Action
		value   string
	}{
		{"existing with value", nameSetting, Values{"DB_NAME": "blog"}, true, ActionOverride, "blog"},
		{"existing without value", nameSetting, Values{}, true, ActionKeep, ""},
		{"existing empty value", nameSetting, Values{"DB_NAME": ""}, true, ActionKeep, ""},
		{"fresh with value", nameSetting, Values{"DB_NAME": "blog"}, false, ActionOverride, "blog"},
		{"fresh default", nameSetting, Values{}, false, ActionDefault, "wordpress"},
		{"fresh generated", keySetting, Values{}, false, ActionGenerate, "secret-01-"},
		{"existing required without value", hostSetting, Values{}, true, ActionKeep, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve([]Setting{tt.setting}, tt.values, tt.existed, counterSecrets())
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Resolve() returned %d assignments", len(got))
			}
			if got[0].Action != tt.action {
				t.Errorf("action = %s, want %s", got[0].Action, tt.action)
			}
			if !strings.HasPrefix(got[0].Value, tt.value) || (tt.value == "" && got[0].Value != "") {
				t.Errorf("value = %q, want prefix %q", got[0].Value, tt.value)
			}
		})
	}
}

func TestResolveRequiredMissing(t *testing.T) {
	for _, missing := range []string{"DB_HOST", "DB_USER", "DB_PASSWORD"} {
		t.Run(missing, func(t *testing.T) {
			values := requiredValues()
			delete(values, missing)

			generated := 0
			gen := func(n int) (string, error) {
				generated++
				return GenerateSecret(n)
			}

			_, err := Resolve(DefaultSettings(), values, false, gen)
			if !IsConfigurationError(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			want := EnvPrefix + missing
			if SettingName(err) != want {
				t.Errorf("SettingName() = %q, want %q", SettingName(err), want)
			}
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %s", err.Error(), want)
			}
			if generated != 0 {
				t.Errorf("%d secrets generated before the required check failed", generated)
			}
		})
	}
}

func TestResolveFirstMissingInCatalogOrder(t *testing.T) {
	_, err := Resolve(DefaultSettings(), Values{}, false, counterSecrets())
	if SettingName(err) != "WORDPRESS_DB_HOST" {
		t.Errorf("SettingName() = %q, want WORDPRESS_DB_HOST", SettingName(err))
	}
}

func TestResolveGeneratorFailure(t *testing.T) {
	boom := func(int) (string, error) {
		return "", generateFailure()
	}
	_, err := Resolve(DefaultSettings(), requiredValues(), false, boom)
	if ErrorCode(err) != ErrCodeSecretGeneration {
		t.Errorf("code = %q, want %q", ErrorCode(err), ErrCodeSecretGeneration)
	}
	if SettingName(err) != "AUTH_KEY" {
		t.Errorf("SettingName() = %q, want AUTH_KEY", SettingName(err))
	}
}

func generateFailure() error {
	_, err := GenerateSecret(0)
	return err
}

func TestSettingsCatalog(t *testing.T) {
	settings := DefaultSettings()
	if len(settings) != 13 {
		t.Fatalf("catalog has %d settings, want 13", len(settings))
	}
	if got := len(SecretSettings(settings)); got != 8 {
		t.Errorf("%d generated settings, want 8", got)
	}
	last := settings[len(settings)-1]
	if last.Name != "table_prefix" || last.Kind != KindVariable || last.EnvVar != "WORDPRESS_TABLE_PREFIX" {
		t.Errorf("unexpected table prefix setting %+v", last)
	}
	for _, s := range settings[:len(settings)-1] {
		if s.Kind != KindDefine || s.EnvVar != EnvPrefix+s.Name {
			t.Errorf("unexpected define setting %+v", s)
		}
	}
}
