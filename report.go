// report.go: YAML summary of a synthesis run
//
// The report names every setting and the action taken for it. Values are
// shown only for settings that are not sensitive.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"go.yaml.in/yaml/v3"

	"github.com/agilira/go-errors"
)

// RedactedValue replaces sensitive values in reports.
const RedactedValue = "<redacted>"

// samplePlaceholders are the values wp-config-sample.php ships with. A
// configuration still holding one was never filled in.
var samplePlaceholders = map[string]bool{
	"database_name_here":          true,
	"username_here":               true,
	"password_here":               true,
	"put your unique phrase here": true,
}

// SettingReport describes the outcome for one setting.
type SettingReport struct {
	Name   string `yaml:"name"`
	EnvVar string `yaml:"env"`
	Kind   string `yaml:"kind"`
	Action string `yaml:"action"`
	Value  string `yaml:"value,omitempty"`
}

// Report is the serializable outcome of a run or a dry run.
type Report struct {
	ConfigPath        string            `yaml:"config_path"`
	TemplatePath      string            `yaml:"template_path"`
	Source            string            `yaml:"source"`
	Written           bool              `yaml:"written"`
	ProxyShimInserted bool              `yaml:"proxy_shim_inserted"`
	Settings          []SettingReport   `yaml:"settings"`
	Permissions       *PermissionReport `yaml:"permissions,omitempty"`
	Placeholders      []string          `yaml:"placeholders,omitempty"`
}

// NewReport builds a report for result, produced from tmpl and destined
// for configPath.
func NewReport(configPath string, tmpl Template, result *Result) *Report {
	r := &Report{
		ConfigPath:   configPath,
		TemplatePath: tmpl.Path,
		Source:       "sample",
	}
	if tmpl.Existed {
		r.Source = "existing"
	}
	if result == nil {
		return r
	}
	r.ProxyShimInserted = result.ProxyShimInserted
	for _, a := range result.Assignments {
		sr := SettingReport{
			Name:   a.Setting.Name,
			EnvVar: a.Setting.EnvVar,
			Kind:   a.Setting.Kind.String(),
			Action: a.Action.String(),
		}
		if a.Action != ActionKeep {
			sr.Value = a.Value
			if a.Setting.IsSensitive() {
				sr.Value = RedactedValue
			}
		}
		r.Settings = append(r.Settings, sr)

		if v, ok := CurrentValue(result.Content, a.Setting); ok && samplePlaceholders[v] {
			r.Placeholders = append(r.Placeholders, a.Setting.Name)
		}
	}
	return r
}

// YAML renders the report.
func (r *Report) YAML() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "failed to encode report")
	}
	return out, nil
}
