// audit.go: Audit trail of configuration runs
//
// Each run records which settings were kept, overridden, defaulted or
// generated, whether the file was written and how the permission pass went.
// Setting values never enter the trail.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
	AuditSecurity
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	case AuditSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// ParseAuditLevel parses info, warn, critical or security.
func ParseAuditLevel(levelStr string) (AuditLevel, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical", "error":
		return AuditCritical, nil
	case "security":
		return AuditSecurity, nil
	default:
		return AuditInfo, errors.New(ErrCodeInvalidAuditConfig,
			fmt.Sprintf("invalid audit level %q", levelStr))
	}
}

// Audit event names.
const (
	EventSynthesisStarted = "synthesis_started"
	EventSettingApplied   = "setting_applied"
	EventProxyShim        = "proxy_shim_inserted"
	EventConfigWritten    = "config_written"
	EventPermissionsFixed = "permissions_fixed"
	EventSynthesisFailed  = "synthesis_failed"
)

const auditComponent = "wpconfig"

// AuditEvent represents a single auditable event
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       AuditLevel             `json:"level"`
	Event       string                 `json:"event"`
	Component   string                 `json:"component"`
	FilePath    string                 `json:"file_path,omitempty"`
	Setting     string                 `json:"setting,omitempty"`
	Action      string                 `json:"action,omitempty"`
	ProcessID   int                    `json:"process_id"`
	ProcessName string                 `json:"process_name"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Checksum    string                 `json:"checksum"`
}

// AuditConfig configures the audit trail. A file ending in .jsonl selects
// the JSONL backend; anything else is a SQLite database.
type AuditConfig struct {
	Enabled    bool
	OutputFile string
	MinLevel   AuditLevel
	BufferSize int `validate:"gte=0"`
}

// DefaultAuditConfig returns a disabled audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:    false,
		MinLevel:   AuditInfo,
		BufferSize: 64,
	}
}

// AuditLogger buffers events and writes them to the configured backend on
// Flush, on Close and whenever the buffer fills.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	processID   int
	processName string
}

// NewAuditLogger opens the backend selected by config.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultAuditConfig().BufferSize
	}
	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAuditBackendFailure, "failed to initialize audit backend").
			WithContext("output_file", config.OutputFile)
	}

	return &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		processID:   os.Getpid(),
		processName: getProcessName(),
	}, nil
}

// Log records an audit event. A nil logger is valid and records nothing.
func (al *AuditLogger) Log(level AuditLevel, event, filePath, setting, action string, context map[string]interface{}) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	auditEvent := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Component:   auditComponent,
		FilePath:    filePath,
		Setting:     setting,
		Action:      action,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	auditEvent.Checksum = al.generateChecksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe()
	}
	al.bufferMu.Unlock()
}

// LogAssignment records the action taken for one setting.
func (al *AuditLogger) LogAssignment(filePath string, a Assignment) {
	level := AuditInfo
	if a.Action == ActionGenerate || (a.Action == ActionOverride && a.Setting.IsSensitive()) {
		level = AuditSecurity
	}
	al.Log(level, EventSettingApplied, filePath, a.Setting.Name, a.Action.String(), nil)
}

// LogFailure records a run that stopped before writing.
func (al *AuditLogger) LogFailure(filePath string, err error) {
	al.Log(AuditCritical, EventSynthesisFailed, filePath, SettingName(err), "", map[string]interface{}{
		"code": ErrorCode(err),
	})
}

// Stats returns backend statistics after flushing buffered events.
func (al *AuditLogger) Stats() (*AuditDatabaseStats, error) {
	if al == nil || al.backend == nil {
		return nil, errors.New(ErrCodeInvalidAuditConfig, "audit trail is not enabled")
	}
	if err := al.Flush(); err != nil {
		return nil, err
	}
	return al.backend.GetStats()
}

// Flush immediately writes all buffered events
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Close flushes and releases the backend.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	if err := al.Flush(); err != nil {
		return errors.Wrap(err, ErrCodeAuditBackendFailure, "failed to flush audit logger during close")
	}
	if al.backend != nil {
		if err := al.backend.Close(); err != nil {
			return errors.Wrap(err, ErrCodeAuditBackendFailure, "failed to close audit backend")
		}
	}
	return nil
}

// flushBufferUnsafe writes the buffer to the backend (caller must hold bufferMu).
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return errors.Wrap(err, ErrCodeAuditBackendFailure, "failed to write audit events to backend")
	}
	al.buffer = al.buffer[:0]
	return nil
}

// generateChecksum creates a tamper-detection checksum using SHA-256
func (al *AuditLogger) generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Event, event.Component, event.FilePath, event.Setting, event.Action)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

func getProcessName() string {
	if len(os.Args) > 0 {
		return filepath.Base(os.Args[0])
	}
	return auditComponent
}
