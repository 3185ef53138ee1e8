// resolve.go: Fallback policy for settings without a supplied value
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
)

// Values maps a setting name to the value supplied for it. A missing key
// and an empty string both mean "not supplied".
type Values map[string]string

// Lookup returns the supplied value for name.
func (v Values) Lookup(name string) (string, bool) {
	val, ok := v[name]
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Action records what synthesis did with a setting.
type Action int

const (
	// ActionKeep leaves the existing statement untouched.
	ActionKeep Action = iota
	// ActionOverride writes the supplied value.
	ActionOverride
	// ActionDefault writes the setting's default.
	ActionDefault
	// ActionGenerate writes a generated secret.
	ActionGenerate
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionOverride:
		return "override"
	case ActionDefault:
		return "default"
	case ActionGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Assignment is the resolved outcome for one setting. Value is empty for
// ActionKeep.
type Assignment struct {
	Setting Setting
	Action  Action
	Value   string
}

// Resolve applies the fallback policy to every setting. On a fresh
// configuration (existed false) every required setting is checked before
// any secret is generated; the first missing one in catalog order fails
// with ErrCodeConfiguration naming its environment variable.
func Resolve(settings []Setting, values Values, existed bool, generate SecretFunc) ([]Assignment, error) {
	if !existed {
		if err := CheckRequired(settings, values); err != nil {
			return nil, err
		}
	}

	if generate == nil {
		generate = GenerateSecret
	}

	assignments := make([]Assignment, 0, len(settings))
	for _, s := range settings {
		if val, ok := values.Lookup(s.Name); ok {
			assignments = append(assignments, Assignment{Setting: s, Action: ActionOverride, Value: val})
			continue
		}
		if existed {
			assignments = append(assignments, Assignment{Setting: s, Action: ActionKeep})
			continue
		}
		switch s.Policy {
		case PolicyDefault:
			assignments = append(assignments, Assignment{Setting: s, Action: ActionDefault, Value: s.Default})
		case PolicyGenerated:
			secret, err := generate(SecretLength)
			if err != nil {
				return nil, &SettingError{Name: s.Name, Err: err}
			}
			assignments = append(assignments, Assignment{Setting: s, Action: ActionGenerate, Value: secret})
		default:
			return nil, missingValueError(s)
		}
	}
	return assignments, nil
}

// CheckRequired fails on the first required setting, in catalog order,
// that has no supplied value.
func CheckRequired(settings []Setting, values Values) error {
	for _, s := range settings {
		if s.Policy != PolicyRequired {
			continue
		}
		if _, ok := values.Lookup(s.Name); !ok {
			return missingValueError(s)
		}
	}
	return nil
}

func missingValueError(s Setting) *SettingError {
	return newSettingError(ErrCodeConfiguration, s.EnvVar,
		fmt.Sprintf("Environment variable %s is not set.", s.EnvVar))
}
