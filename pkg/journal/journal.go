// Package journal provides SQLite record-keeping for generated
// envelopes and manifest sequence number allocation.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Options holds configuration for opening a journal database.
type Options struct {
	Path        string
	BusyTimeout int // milliseconds
}

// Open opens a journal database and initializes the schema if needed.
func Open(options Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", options.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	if options.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", options.BusyTimeout)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// initializeSchema creates the journal tables and indexes.
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion sql.NullString
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if currentVersion.Valid && currentVersion.String == "1.0.0" {
		return nil
	}

	// Envelopes table: one row per generated envelope
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS envelopes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence_number INTEGER NOT NULL,
			digest_algorithm TEXT NOT NULL,
			envelope_hash TEXT NOT NULL,
			payload_count INTEGER NOT NULL,
			payload_bytes INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create envelopes table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_envelopes_sequence ON envelopes(sequence_number)",
		"CREATE INDEX IF NOT EXISTS idx_envelopes_created_at ON envelopes(created_at)",
	}
	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES ('1.0.0')"); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// Entry describes one generated envelope.
type Entry struct {
	ID              int64  `json:"id,omitempty"`
	SequenceNumber  uint64 `json:"sequence_number"`
	DigestAlgorithm string `json:"digest_algorithm"`
	EnvelopeHash    string `json:"envelope_hash"`
	PayloadCount    int    `json:"payload_count"`
	PayloadBytes    int64  `json:"payload_bytes"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// NextSequence returns the sequence number to use for the next
// envelope: one past the highest recorded, or zero for an empty
// journal.
func NextSequence(db *sql.DB) (uint64, error) {
	var highest sql.NullInt64
	err := db.QueryRow("SELECT MAX(sequence_number) FROM envelopes").Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("failed to query highest sequence number: %w", err)
	}

	if !highest.Valid {
		return 0, nil
	}
	return uint64(highest.Int64) + 1, nil
}

// RecordEnvelope inserts a journal entry for a generated envelope and
// returns its row ID.
func RecordEnvelope(db *sql.DB, entry Entry) (int64, error) {
	stmt, err := db.Prepare(`
		INSERT INTO envelopes (
			sequence_number, digest_algorithm, envelope_hash,
			payload_count, payload_bytes
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare envelope insert: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(
		int64(entry.SequenceNumber),
		entry.DigestAlgorithm,
		entry.EnvelopeHash,
		entry.PayloadCount,
		entry.PayloadBytes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert envelope entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// ListEnvelopes returns the most recent journal entries, newest first.
func ListEnvelopes(db *sql.DB, limit int) ([]Entry, error) {
	rows, err := db.Query(`
		SELECT id, sequence_number, digest_algorithm, envelope_hash,
		       payload_count, payload_bytes, created_at
		FROM envelopes
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query envelopes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var sequence int64
		if err := rows.Scan(
			&entry.ID,
			&sequence,
			&entry.DigestAlgorithm,
			&entry.EnvelopeHash,
			&entry.PayloadCount,
			&entry.PayloadBytes,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan envelope entry: %w", err)
		}
		entry.SequenceNumber = uint64(sequence)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate envelopes: %w", err)
	}

	return entries, nil
}
