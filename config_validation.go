// config_validation.go: Validation of plugin options
//
// Field rules live in struct tags checked by validator/v10; cross-field
// checks that only deserve a warning are done by hand.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agilira/go-errors"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func optionsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidationResult contains errors and warnings found in Options.
type ValidationResult struct {
	Valid    bool     `yaml:"valid"`
	Errors   []string `yaml:"errors,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// String returns a human-readable summary.
func (vr ValidationResult) String() string {
	if vr.Valid {
		if len(vr.Warnings) == 0 {
			return "Options are valid"
		}
		return fmt.Sprintf("Options are valid with %d warning(s)", len(vr.Warnings))
	}
	return fmt.Sprintf("Options are invalid: %d error(s), %d warning(s)",
		len(vr.Errors), len(vr.Warnings))
}

// Validate returns an ErrCodeInvalidOptions error describing the first
// problem, or nil.
func (o Options) Validate() error {
	result := o.ValidateDetailed()
	if result.Valid {
		return nil
	}
	return errors.New(ErrCodeInvalidOptions, result.Errors[0]).
		WithContext("errors", len(result.Errors))
}

// ValidateDetailed checks every rule and collects all findings.
func (o Options) ValidateDetailed() ValidationResult {
	result := ValidationResult{Valid: true}

	if err := optionsValidator().Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result.Errors = append(result.Errors, describeFieldError(fe))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if o.SkipPermissions && o.StrictPermissions {
		result.Warnings = append(result.Warnings, "strict permissions has no effect when permissions are skipped")
	}
	if !underRoot(o.WebRoot, o.ConfigPath) && !o.SkipPermissions {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("config path %s is outside web root %s and will keep its ownership", o.ConfigPath, o.WebRoot))
	}
	if o.Audit.Enabled && o.Audit.OutputFile == "" {
		result.Errors = append(result.Errors, "audit is enabled but no audit file is set")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "startswith":
		return fmt.Sprintf("%s must be an absolute path, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func underRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
