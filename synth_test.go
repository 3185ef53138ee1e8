// synth_test.go: Tests for configuration synthesis
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadSample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "wp-config-sample.php"))
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}
	return string(data)
}

func loadLegacy(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "wp-config-legacy.php"))
	if err != nil {
		t.Fatalf("failed to read legacy config: %v", err)
	}
	return string(data)
}

func mustDefine(t *testing.T, doc, name string) string {
	t.Helper()
	v, ok := DefineValue(doc, name)
	if !ok {
		t.Fatalf("define %s not found exactly once", name)
	}
	return v
}

func TestSynthesizeFreshSample(t *testing.T) {
	s := NewSynthesizer()
	res, err := s.Synthesize(Template{Content: loadSample(t)}, requiredValues())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	doc := res.Content

	for name, want := range map[string]string{
		"DB_HOST":     "db",
		"DB_USER":     "wp",
		"DB_PASSWORD": "secret",
		"DB_NAME":     "wordpress",
	} {
		if got := mustDefine(t, doc, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if prefix, ok := VariableValue(doc, "table_prefix"); !ok || prefix != "wp_" {
		t.Errorf("table_prefix = %q, %v", prefix, ok)
	}

	seen := map[string]bool{}
	for _, s := range SecretSettings(DefaultSettings()) {
		v := mustDefine(t, doc, s.Name)
		if len(v) != SecretLength {
			t.Errorf("%s has length %d", s.Name, len(v))
		}
		if seen[v] {
			t.Errorf("%s repeats another secret", s.Name)
		}
		seen[v] = true
	}

	if !res.ProxyShimInserted {
		t.Error("proxy shim not inserted on fresh configuration")
	}
	anchor := "/* That's all, stop editing! Happy publishing. */"
	if !strings.Contains(doc, ProxyShim+"\n\n"+anchor) {
		t.Error("proxy shim is not directly before the anchor")
	}
	if strings.Count(doc, anchor) != 1 {
		t.Error("anchor must appear exactly once")
	}
	if res.Anchor != anchor {
		t.Errorf("Anchor = %q", res.Anchor)
	}
}

func TestSynthesizeExistingUnchanged(t *testing.T) {
	legacy := loadLegacy(t)
	res, err := NewSynthesizer().Synthesize(Template{Content: legacy, Existed: true}, Values{})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if res.Content != legacy {
		t.Errorf("existing configuration changed:\n%s", res.Content)
	}
	if res.ProxyShimInserted {
		t.Error("proxy shim inserted into existing configuration")
	}
	for _, a := range res.Assignments {
		if a.Action != ActionKeep {
			t.Errorf("%s action = %s, want keep", a.Setting.Name, a.Action)
		}
	}
}

func TestSynthesizeExistingOverride(t *testing.T) {
	legacy := loadLegacy(t)
	res, err := NewSynthesizer().Synthesize(Template{Content: legacy, Existed: true}, Values{"DB_HOST": "newhost"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := strings.Replace(legacy, `"oldhost"`, `"newhost"`, 1)
	if res.Content != want {
		t.Errorf("unexpected content:\n%s", res.Content)
	}
}

func TestSynthesizeFreshMissingHost(t *testing.T) {
	values := requiredValues()
	delete(values, "DB_HOST")

	res, err := NewSynthesizer().Synthesize(Template{Content: loadSample(t)}, values)
	if res != nil {
		t.Error("result returned alongside error")
	}
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "WORDPRESS_DB_HOST") {
		t.Errorf("error %q does not name WORDPRESS_DB_HOST", err)
	}
}

func TestSynthesizeMalformedTemplate(t *testing.T) {
	sample := loadSample(t)

	tests := []struct {
		name    string
		content string
		existed bool
		values  Values
		setting string
	}{
		{
			name:    "missing define",
			content: strings.Replace(sample, "define( 'DB_USER', 'username_here' );", "", 1),
			values:  requiredValues(),
			setting: "DB_USER",
		},
		{
			name:    "missing anchor",
			content: strings.Replace(sample, "/* That's all, stop editing! Happy publishing. */", "", 1),
			values:  requiredValues(),
			setting: Anchors[0],
		},
		{
			name:    "missing anchor on existing file",
			content: strings.Replace(loadLegacy(t), "/* That's all, stop editing! Happy blogging. */", "", 1),
			existed: true,
			values:  Values{},
			setting: Anchors[0],
		},
		{
			name:    "duplicate anchor",
			content: sample + "\n/* That's all, stop editing! Happy publishing. */\n",
			values:  requiredValues(),
			setting: Anchors[1],
		},
		{
			name:    "both anchor wordings",
			content: sample + "\n/* That's all, stop editing! Happy blogging. */\n",
			values:  requiredValues(),
			setting: Anchors[1],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSynthesizer().Synthesize(Template{Content: tt.content, Existed: tt.existed}, tt.values)
			if !IsMalformedTemplate(err) {
				t.Fatalf("expected malformed template error, got %v", err)
			}
			if SettingName(err) != tt.setting {
				t.Errorf("SettingName() = %q, want %q", SettingName(err), tt.setting)
			}
		})
	}
}

func TestSynthesizeShimNotDuplicated(t *testing.T) {
	s := NewSynthesizer()
	first, err := s.Synthesize(Template{Content: loadSample(t)}, requiredValues())
	if err != nil {
		t.Fatalf("first Synthesize() error = %v", err)
	}

	// a fresh template that already carries the shim, e.g. a patched sample
	second, err := s.Synthesize(Template{Content: first.Content}, requiredValues())
	if err != nil {
		t.Fatalf("second Synthesize() error = %v", err)
	}
	if second.ProxyShimInserted {
		t.Error("shim reported inserted twice")
	}
	if n := strings.Count(second.Content, ProxyShim); n != 1 {
		t.Errorf("shim appears %d times", n)
	}

	// restart against the written file
	third, err := s.Synthesize(Template{Content: first.Content, Existed: true}, Values{})
	if err != nil {
		t.Fatalf("third Synthesize() error = %v", err)
	}
	if third.Content != first.Content {
		t.Error("restart changed an already configured file")
	}
}

func TestSynthesizeLegacyAnchor(t *testing.T) {
	legacy := loadLegacy(t)
	res, err := NewSynthesizer().Synthesize(Template{Content: legacy}, requiredValues())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if res.Anchor != Anchors[0] {
		t.Errorf("Anchor = %q, want %q", res.Anchor, Anchors[0])
	}
	if !strings.Contains(res.Content, ProxyShim+"\n\n"+Anchors[0]) {
		t.Error("shim not inserted before legacy anchor")
	}
	// double quoted defines keep their quotes
	if !strings.Contains(res.Content, `define("DB_HOST", "db");`) {
		t.Error("double quoted DB_HOST not rewritten in place")
	}
}

func TestSynthesizeDeterministicWithFixedSecrets(t *testing.T) {
	sample := loadSample(t)
	a, err := NewSynthesizer(WithSecretFunc(counterSecrets())).Synthesize(Template{Content: sample}, requiredValues())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSynthesizer(WithSecretFunc(counterSecrets())).Synthesize(Template{Content: sample}, requiredValues())
	if err != nil {
		t.Fatal(err)
	}
	if a.Content != b.Content {
		t.Error("synthesis is not deterministic for identical inputs")
	}
	if v := mustDefine(t, a.Content, "AUTH_KEY"); !strings.HasPrefix(v, "secret-01-") {
		t.Errorf("AUTH_KEY = %q, secrets not generated in catalog order", v)
	}
}

func TestSynthesizeValueContainingAnchorText(t *testing.T) {
	legacy := loadLegacy(t)
	values := requiredValues()
	values["DB_PASSWORD"] = Anchors[0]

	res, err := NewSynthesizer().Synthesize(Template{Content: legacy}, values)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got := mustDefine(t, res.Content, "DB_PASSWORD"); got != Anchors[0] {
		t.Errorf("DB_PASSWORD = %q", got)
	}
	shim := strings.Index(res.Content, ProxyShim+"\n\n"+Anchors[0])
	if shim < 0 || shim < strings.Index(res.Content, `define("DB_PASSWORD"`) {
		t.Error("shim not inserted before the real end-of-settings marker")
	}
	if n := strings.Count(res.Content, ProxyShim); n != 1 {
		t.Errorf("shim appears %d times", n)
	}

	// the written file now holds the marker text twice; a restart still works
	again, err := NewSynthesizer().Synthesize(Template{Content: res.Content, Existed: true}, values)
	if err != nil {
		t.Fatalf("restart Synthesize() error = %v", err)
	}
	if again.Content != res.Content {
		t.Error("restart changed the configuration")
	}
}
