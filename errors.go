// errors.go: Error codes and helpers for wp-config synthesis
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"github.com/agilira/go-errors"
)

// Error codes for wpconfig operations
const (
	ErrCodeMissingTemplate     = "WPCONFIG_MISSING_TEMPLATE"
	ErrCodeConfiguration       = "WPCONFIG_CONFIGURATION_ERROR"
	ErrCodeMalformedTemplate   = "WPCONFIG_MALFORMED_TEMPLATE"
	ErrCodeIOError             = "WPCONFIG_IO_ERROR"
	ErrCodePermission          = "WPCONFIG_PERMISSION_ERROR"
	ErrCodeInvalidOptions      = "WPCONFIG_INVALID_OPTIONS"
	ErrCodeSecretGeneration    = "WPCONFIG_SECRET_GENERATION"
	ErrCodeInvalidAuditConfig  = "WPCONFIG_INVALID_AUDIT_CONFIG"
	ErrCodeAuditBackendFailure = "WPCONFIG_AUDIT_BACKEND_FAILURE"
)

// SettingError ties a failure to the setting, environment variable or
// anchor it concerns, so callers can report the name without parsing text.
type SettingError struct {
	Name string
	Err  error
}

func (e *SettingError) Error() string {
	if e.Err == nil {
		return e.Name
	}
	return e.Err.Error()
}

func (e *SettingError) Unwrap() error {
	return e.Err
}

// newSettingError builds a coded error and attaches the offending name.
func newSettingError(code errors.ErrorCode, name, msg string) *SettingError {
	return &SettingError{
		Name: name,
		Err:  errors.New(code, msg).WithContext("name", name),
	}
}

// ErrorCode returns the first wpconfig error code found in err's chain,
// or an empty string when err carries none.
func ErrorCode(err error) string {
	for err != nil {
		if coder, ok := err.(errors.ErrorCoder); ok {
			return string(coder.ErrorCode())
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// SettingName returns the name attached by a SettingError in err's chain.
func SettingName(err error) string {
	for err != nil {
		if se, ok := err.(*SettingError); ok {
			return se.Name
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// IsConfigurationError reports a required value missing on a fresh configuration.
func IsConfigurationError(err error) bool {
	return ErrorCode(err) == ErrCodeConfiguration
}

// IsMalformedTemplate reports a template without the expected statements or anchor.
func IsMalformedTemplate(err error) bool {
	return ErrorCode(err) == ErrCodeMalformedTemplate
}

// IsMissingTemplate reports that neither the configuration nor the sample exists.
func IsMissingTemplate(err error) bool {
	return ErrorCode(err) == ErrCodeMissingTemplate
}
