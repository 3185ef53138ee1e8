// audit_backend.go: Storage backends for the audit trail
//
// SQLite keeps a queryable history across container restarts when the
// audit file lives on a volume. JSONL suits log shippers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend abstracts where audit events are stored.
type auditBackend interface {
	// Write persists a batch of audit events.
	Write(events []AuditEvent) error

	// Flush commits pending writes to storage.
	Flush() error

	// Close releases all resources. The backend must not be used afterwards.
	Close() error

	// GetStats returns statistics about stored events.
	GetStats() (*AuditDatabaseStats, error)
}

// auditRetentionDays bounds how long SQLite keeps events.
const auditRetentionDays = 90

// createAuditBackend selects JSONL for .jsonl files and SQLite otherwise,
// falling back to a JSONL file next to the database if SQLite fails.
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if config.OutputFile == "" {
		return nil, errors.New(ErrCodeInvalidAuditConfig, "audit output file is required")
	}

	if filepath.Ext(config.OutputFile) == ".jsonl" {
		return newJSONLBackend(config.OutputFile)
	}

	backend, err := newSQLiteBackend(config.OutputFile)
	if err == nil {
		return backend, nil
	}

	fallback := strings.TrimSuffix(config.OutputFile, filepath.Ext(config.OutputFile)) + ".jsonl"
	jsonlBackend, jsonlErr := newJSONLBackend(fallback)
	if jsonlErr != nil {
		return nil, fmt.Errorf("all audit backends failed - SQLite: %w, JSONL: %v", err, jsonlErr)
	}
	return jsonlBackend, nil
}

// sqliteAuditBackend stores events in a SQLite database.
type sqliteAuditBackend struct {
	db         *sql.DB
	dbPath     string
	insertStmt *sql.Stmt
	mu         sync.RWMutex
	closed     bool
}

func newSQLiteBackend(dbPath string) (*sqliteAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := openSQLiteDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	backend := &sqliteAuditBackend{db: db, dbPath: dbPath}
	if err := backend.ensureSchemaVersion(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit database schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare audit database statements: %w", err)
	}

	// maintenance failures never block a boot
	_ = backend.performMaintenance()

	return backend, nil
}

// openSQLiteDatabase opens the database in WAL mode with a busy timeout so
// several containers can share one audit volume.
func openSQLiteDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=1000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database (close error: %v): %w", closeErr, err)
		}
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}
	return db, nil
}

// ensureSchemaVersion migrates the schema to currentSchemaVersion.
//   - v1: audit_events table
//   - v2: indexes for per-setting history
func (s *sqliteAuditBackend) ensureSchemaVersion() error {
	const currentSchemaVersion = 2

	if _, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_info (
		version INTEGER PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("failed to create schema_info table: %w", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_info ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check schema version: %w", err)
		}
		version = 0
	}

	if version >= currentSchemaVersion {
		return nil
	}
	if err := s.migrateSchema(version, currentSchemaVersion); err != nil {
		return fmt.Errorf("schema migration from v%d to v%d failed: %w", version, currentSchemaVersion, err)
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO schema_info (version, updated_at) VALUES (?, CURRENT_TIMESTAMP)`,
		currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) migrateSchema(oldVersion, newVersion int) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for version := oldVersion; version < newVersion; version++ {
		switch version {
		case 0:
			err = migrateToV1(tx)
		case 1:
			err = migrateToV2(tx)
		default:
			err = fmt.Errorf("unknown migration path from version %d", version)
		}
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}

func migrateToV1(tx *sql.Tx) error {
	if _, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		event TEXT NOT NULL,
		component TEXT NOT NULL,
		file_path TEXT,
		setting TEXT,
		action TEXT,
		process_id INTEGER NOT NULL,
		process_name TEXT NOT NULL,
		context TEXT,
		checksum TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("failed to create audit_events table: %w", err)
	}

	for _, indexSQL := range []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_level ON audit_events(level)",
		"CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_events(created_at)",
	} {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create basic index: %w", err)
		}
	}
	return nil
}

func migrateToV2(tx *sql.Tx) error {
	for _, indexSQL := range []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_setting_time ON audit_events(setting, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_event_time ON audit_events(event, timestamp)",
	} {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create composite index: %w", err)
		}
	}
	return nil
}

func (s *sqliteAuditBackend) performMaintenance() error {
	if _, err := s.db.Exec(`
		DELETE FROM audit_events
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`, auditRetentionDays); err != nil {
		return fmt.Errorf("failed to cleanup old audit events: %w", err)
	}
	for _, task := range []string{"PRAGMA optimize", "PRAGMA wal_checkpoint(FULL)"} {
		_, _ = s.db.Exec(task)
	}
	return nil
}

func (s *sqliteAuditBackend) prepareStatements() error {
	stmt, err := s.db.Prepare(`
	INSERT INTO audit_events (
		timestamp, level, event, component,
		file_path, setting, action,
		process_id, process_name, context, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	s.insertStmt = stmt
	return nil
}

// AuditDatabaseStats summarizes stored audit events.
type AuditDatabaseStats struct {
	TotalEvents     int64            `yaml:"total_events" json:"total_events"`
	EventsByLevel   map[string]int64 `yaml:"events_by_level" json:"events_by_level"`
	EventsByName    map[string]int64 `yaml:"events_by_name" json:"events_by_name"`
	GeneratedValues int64            `yaml:"generated_values" json:"generated_values"`
	OldestEvent     *time.Time       `yaml:"oldest_event,omitempty" json:"oldest_event"`
	NewestEvent     *time.Time       `yaml:"newest_event,omitempty" json:"newest_event"`
	DatabaseSize    int64            `yaml:"database_size_bytes" json:"database_size_bytes"`
	SchemaVersion   int              `yaml:"schema_version" json:"schema_version"`
}

func newAuditStats() *AuditDatabaseStats {
	return &AuditDatabaseStats{
		EventsByLevel: make(map[string]int64),
		EventsByName:  make(map[string]int64),
	}
}

func (s *sqliteAuditBackend) getDatabaseStats() (*AuditDatabaseStats, error) {
	stats := newAuditStats()

	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total events count: %w", err)
	}
	if err := s.countGrouped("level", stats.EventsByLevel); err != nil {
		return nil, err
	}
	if err := s.countGrouped("event", stats.EventsByName); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_events WHERE action = ?", ActionGenerate.String()).
		Scan(&stats.GeneratedValues); err != nil {
		return nil, fmt.Errorf("failed to count generated values: %w", err)
	}
	if err := s.getEventTimeRange(stats); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT version FROM schema_info ORDER BY version DESC LIMIT 1").
		Scan(&stats.SchemaVersion); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

// countGrouped fills into with row counts grouped by column, which must be
// a trusted column name.
func (s *sqliteAuditBackend) countGrouped(column string, into map[string]int64) error {
	// #nosec G202 -- column is one of a fixed set of identifiers
	rows, err := s.db.Query("SELECT " + column + ", COUNT(*) FROM audit_events GROUP BY " + column)
	if err != nil {
		return fmt.Errorf("failed to group events by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s stats: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

func (s *sqliteAuditBackend) getEventTimeRange(stats *AuditDatabaseStats) error {
	var oldestStr, newestStr sql.NullString
	err := s.db.QueryRow(`SELECT MIN(created_at), MAX(created_at) FROM audit_events`).Scan(&oldestStr, &newestStr)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to get event time range: %w", err)
	}
	if oldestStr.Valid {
		if oldest, err := time.Parse("2006-01-02 15:04:05", oldestStr.String); err == nil {
			stats.OldestEvent = &oldest
		}
	}
	if newestStr.Valid {
		if newest, err := time.Parse("2006-01-02 15:04:05", newestStr.String); err == nil {
			stats.NewestEvent = &newest
		}
	}
	return nil
}

// Write inserts a batch of events in one transaction.
func (s *sqliteAuditBackend) Write(events []AuditEvent) (err error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("cannot write to closed SQLite audit backend")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStmt := tx.Stmt(s.insertStmt)
	defer func() { _ = txStmt.Close() }()

	for _, event := range events {
		if err = insertEvent(txStmt, event); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

func insertEvent(stmt *sql.Stmt, event AuditEvent) error {
	contextJSON := ""
	if event.Context != nil {
		data, err := json.Marshal(event.Context)
		if err != nil {
			return fmt.Errorf("failed to serialize context: %w", err)
		}
		contextJSON = string(data)
	}

	_, err := stmt.Exec(
		event.Timestamp.Format(time.RFC3339Nano),
		event.Level.String(),
		event.Event,
		event.Component,
		event.FilePath,
		event.Setting,
		event.Action,
		event.ProcessID,
		event.ProcessName,
		contextJSON,
		event.Checksum,
	)
	return err
}

// Flush checkpoints the WAL.
func (s *sqliteAuditBackend) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to flush SQLite audit backend: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) GetStats() (*AuditDatabaseStats, error) {
	return s.getDatabaseStats()
}

// Close flushes the WAL and closes the database. It is safe to call twice.
func (s *sqliteAuditBackend) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []string
	if s.insertStmt != nil {
		if err := s.insertStmt.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing SQLite audit backend: %s", strings.Join(errs, "; "))
	}
	return nil
}

// jsonlAuditBackend appends one JSON object per line.
type jsonlAuditBackend struct {
	file   *os.File
	path   string
	mu     sync.Mutex
	closed bool
}

// jsonlMaxLine bounds a single audit line when reading the file back.
const jsonlMaxLine = 1 << 20

func newJSONLBackend(path string) (*jsonlAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create JSONL audit log directory: %w", err)
	}
	// #nosec G304 -- audit path is operator configuration
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit log file: %w", err)
	}
	return &jsonlAuditBackend{file: file, path: path}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("cannot write to closed JSONL audit backend")
	}

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize audit event: %w", err)
		}
		data = append(data, '\n')
		if _, err := j.file.Write(data); err != nil {
			return fmt.Errorf("failed to write audit event to JSONL: %w", err)
		}
	}
	return nil
}

func (j *jsonlAuditBackend) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync JSONL audit file: %w", err)
	}
	return nil
}

// GetStats reads the whole file back, so events appended by earlier
// container starts are counted too. Lines that do not decode are skipped.
func (j *jsonlAuditBackend) GetStats() (*AuditDatabaseStats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	// #nosec G304 -- audit path is operator configuration
	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stats := newAuditStats()
	stats.SchemaVersion = 1

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), jsonlMaxLine)
	for scanner.Scan() {
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		stats.TotalEvents++
		stats.EventsByLevel[event.Level.String()]++
		stats.EventsByName[event.Event]++
		if event.Action == ActionGenerate.String() {
			stats.GeneratedValues++
		}
		ts := event.Timestamp
		if stats.OldestEvent == nil || ts.Before(*stats.OldestEvent) {
			stats.OldestEvent = &ts
		}
		if stats.NewestEvent == nil || ts.After(*stats.NewestEvent) {
			stats.NewestEvent = &ts
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL audit file: %w", err)
	}

	if info, err := f.Stat(); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
