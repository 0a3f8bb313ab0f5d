package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/franz/osteo-vault/internal/util"
)

const (
	currentSchemaVersion = 2

	// practitionerKey is the fixed id of the singleton profile row
	practitionerKey = 1
)

// Store represents the application's persistent state
type Store struct {
	db       *sql.DB
	notifier *Notifier
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, notifier: newNotifier()}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.notifier.close()
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// Notifier returns the store's change-notification hub
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	// All pending schema steps commit as one unit
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// SchemaVersion returns the applied schema version
func (s *Store) SchemaVersion() (int, error) {
	return s.getSchemaVersion()
}

// Transaction executes a function within a transaction.
// Either every write inside fn becomes durable, or none do. Commits
// hitting a transient SQLITE_BUSY are retried with backoff.
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(txBackoff(attempt))
		}

		lastErr = s.runTransaction(fn)
		if lastErr == nil || !isBusyError(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (s *Store) runTransaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ResetAll empties every table in one transaction. Used only by the
// reset and restore flows.
func (s *Store) ResetAll() error {
	err := s.Transaction(func(tx *sql.Tx) error {
		return clearAllTables(tx)
	})
	if err != nil {
		return err
	}

	s.notifier.publish(Change{Table: "*", Op: OpReset})
	return nil
}

func clearAllTables(tx *sql.Tx) error {
	tables := []string{
		"media_thumbs", "media_blobs", "media_metadata",
		"sessions", "patients", "practitioner",
	}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Counts reports the number of rows per entity table
func (s *Store) Counts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"patients", "sessions", "practitioner", "media_metadata"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// wrapInsertError classifies a failed insert: key/uniqueness violations
// map onto ErrConstraint so callers can test with errors.Is.
func wrapInsertError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "constraint") || strings.Contains(msg, "unique") {
		return fmt.Errorf("%s: %w: %v", op, util.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Patient represents a patient demographic and clinical-history record
type Patient struct {
	ID              int64  `json:"id"`
	LastName        string `json:"lastName"`
	FirstName       string `json:"firstName"`
	BirthDate       string `json:"birthDate"` // YYYY-MM-DD
	Gender          string `json:"gender"`    // "M" or "F"
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	Profession      string `json:"profession,omitempty"`
	MedicalHistory  string `json:"medicalHistory,omitempty"`
	SurgicalHistory string `json:"surgicalHistory,omitempty"`
	TraumaHistory   string `json:"traumaHistory,omitempty"`
	Notes           string `json:"notes,omitempty"`
	PhotoID         int64  `json:"photoId,omitempty"` // 0 means no photo
	CreatedAt       string `json:"createdAt,omitempty"`
}

// Session represents one consultation record owned by a patient
type Session struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patientId"`
	Date      string `json:"date"` // YYYY-MM-DD, no time component
	Motive    string `json:"motive,omitempty"`
	Tests     string `json:"tests,omitempty"`
	Treatment string `json:"treatment,omitempty"`
	Advice    string `json:"advice,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Practitioner represents the singleton profile row
type Practitioner struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Photo        string `json:"photo,omitempty"` // inline-encoded image or media reference
	ThemeColor   string `json:"themeColor,omitempty"`
	Password     string `json:"password,omitempty"` // soft local lock, not a security boundary
	DarkMode     bool   `json:"darkMode"`
	LastExportAt string `json:"lastExportAt,omitempty"`
}

// MediaMetadata describes one processed image asset. The id is the
// external handle other entities reference (Patient.PhotoID).
type MediaMetadata struct {
	ID            int64  `json:"id"`
	PatientID     int64  `json:"patientId,omitempty"`
	SessionID     int64  `json:"sessionId,omitempty"`
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SHA1          string `json:"sha1,omitempty"`
	FormatVersion int    `json:"formatVersion"`
	ProcessedAt   string `json:"processedAt,omitempty"`
}

// MediaAsset bundles a metadata row with its two binary variants.
// Used by the restore path and media-inclusive exports.
type MediaAsset struct {
	Meta  MediaMetadata `json:"meta"`
	HD    []byte        `json:"hd"`
	Thumb []byte        `json:"thumb"`
}
