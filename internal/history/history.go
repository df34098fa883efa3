// Package history keeps a local ledger of completed syncs in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DBFile is the ledger file name under the preferences directory.
const DBFile = "ads2bibdesk.db"

// Record is one completed reconciliation.
type Record struct {
	ID                int64
	Identifier        string
	Bibcode           string
	CiteKey           string
	DuplicatesRemoved int
	PDFAttached       bool
	SyncedAt          time.Time
}

// Store wraps the SQLite ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS syncs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL,
			bibcode TEXT NOT NULL,
			cite_key TEXT,
			duplicates_removed INTEGER NOT NULL DEFAULT 0,
			pdf_attached INTEGER NOT NULL DEFAULT 0,
			synced_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_syncs_identifier ON syncs(identifier);
	`
	_, err := db.Exec(schema)
	return err
}

// Add appends a record to the ledger.
func (s *Store) Add(rec Record) error {
	if rec.SyncedAt.IsZero() {
		rec.SyncedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO syncs (identifier, bibcode, cite_key, duplicates_removed, pdf_attached, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Identifier, rec.Bibcode, rec.CiteKey, rec.DuplicatesRemoved,
		boolToInt(rec.PDFAttached), rec.SyncedAt.Unix())
	if err != nil {
		return fmt.Errorf("recording sync: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, identifier, bibcode, cite_key, duplicates_removed, pdf_attached, synced_at
		FROM syncs ORDER BY synced_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var pdf int
		var syncedAt int64
		if err := rows.Scan(&rec.ID, &rec.Identifier, &rec.Bibcode, &rec.CiteKey,
			&rec.DuplicatesRemoved, &pdf, &syncedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.PDFAttached = pdf != 0
		rec.SyncedAt = time.Unix(syncedAt, 0)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// LastSynced returns when an identifier was last synced, if ever. Batch
// freshness checks use this to skip identifiers refreshed recently.
func (s *Store) LastSynced(identifier string) (time.Time, bool, error) {
	var syncedAt int64
	err := s.db.QueryRow(`
		SELECT synced_at FROM syncs
		WHERE identifier = ? OR bibcode = ?
		ORDER BY synced_at DESC LIMIT 1`, identifier, identifier).Scan(&syncedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying last sync: %w", err)
	}
	return time.Unix(syncedAt, 0), true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
