// settings.go: Catalog of the settings written into wp-config.php
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import "strings"

// EnvPrefix is prepended to the upper-cased setting name to form the
// environment variable that supplies it.
const EnvPrefix = "WORDPRESS_"

// SyntaxKind selects which PHP statement carries a setting.
type SyntaxKind int

const (
	// KindDefine is a define('NAME', 'value'); constant.
	KindDefine SyntaxKind = iota
	// KindVariable is a $name = 'value'; assignment.
	KindVariable
)

func (k SyntaxKind) String() string {
	switch k {
	case KindDefine:
		return "define"
	case KindVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Policy decides what happens to a setting with no supplied value when the
// configuration is created from the sample.
type Policy int

const (
	// PolicyRequired fails the synthesis.
	PolicyRequired Policy = iota
	// PolicyDefault writes the setting's Default.
	PolicyDefault
	// PolicyGenerated writes a freshly generated secret.
	PolicyGenerated
)

func (p Policy) String() string {
	switch p {
	case PolicyRequired:
		return "required"
	case PolicyDefault:
		return "default"
	case PolicyGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Setting describes one value of wp-config.php.
type Setting struct {
	Name    string
	EnvVar  string
	Kind    SyntaxKind
	Policy  Policy
	Default string
}

func define(name string, policy Policy, def string) Setting {
	return Setting{Name: name, EnvVar: EnvPrefix + name, Kind: KindDefine, Policy: policy, Default: def}
}

// DefaultSettings returns the settings in the order they are written.
func DefaultSettings() []Setting {
	return []Setting{
		define("DB_HOST", PolicyRequired, ""),
		define("DB_USER", PolicyRequired, ""),
		define("DB_PASSWORD", PolicyRequired, ""),
		define("DB_NAME", PolicyDefault, "wordpress"),
		define("AUTH_KEY", PolicyGenerated, ""),
		define("AUTH_SALT", PolicyGenerated, ""),
		define("SECURE_AUTH_KEY", PolicyGenerated, ""),
		define("SECURE_AUTH_SALT", PolicyGenerated, ""),
		define("LOGGED_IN_KEY", PolicyGenerated, ""),
		define("LOGGED_IN_SALT", PolicyGenerated, ""),
		define("NONCE_KEY", PolicyGenerated, ""),
		define("NONCE_SALT", PolicyGenerated, ""),
		{
			Name:    "table_prefix",
			EnvVar:  EnvPrefix + strings.ToUpper("table_prefix"),
			Kind:    KindVariable,
			Policy:  PolicyDefault,
			Default: "wp_",
		},
	}
}

// SecretSettings returns the generated-policy settings of settings.
func SecretSettings(settings []Setting) []Setting {
	var out []Setting
	for _, s := range settings {
		if s.Policy == PolicyGenerated {
			out = append(out, s)
		}
	}
	return out
}

// IsSensitive reports whether a setting's value must never be logged or
// reported.
func (s Setting) IsSensitive() bool {
	return s.Policy == PolicyGenerated || s.Name == "DB_PASSWORD"
}
