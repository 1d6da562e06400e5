// Package store persists analyzed track descriptors in SQLite so a library
// only pays the analysis cost once per file version. Entries are keyed by
// path and modification time; replacing a file in place makes its row stale.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RyanBlaney/mixkey/analysis"
	"github.com/RyanBlaney/mixkey/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS track_descriptors (
	path       TEXT PRIMARY KEY,
	mod_time   INTEGER NOT NULL,
	bpm        INTEGER,
	camelot    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store is a SQLite-backed descriptor cache. It implements
// analysis.PersistentCache.
type Store struct {
	db *sql.DB
}

// Open initialises the descriptor database at path and ensures the schema
// exists
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening descriptor store %s: %w", path, err)
	}

	// SQLite pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logging.Warn("Pragma failed", logging.Fields{"pragma": p, "error": err.Error()})
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring descriptor schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load retrieves the descriptor stored for a path at the given modification
// time. Returns false when no row matches, including when the file changed
// since it was analyzed.
func (s *Store) Load(path string, modTime int64) (analysis.Descriptor, bool) {
	var (
		bpm     sql.NullInt64
		camelot string
	)
	err := s.db.QueryRow(
		`SELECT bpm, camelot FROM track_descriptors WHERE path = ? AND mod_time = ?`,
		path, modTime,
	).Scan(&bpm, &camelot)
	if err != nil {
		return analysis.Descriptor{}, false
	}

	d := analysis.Descriptor{Camelot: camelot}
	if bpm.Valid {
		d.BPM = int(bpm.Int64)
		d.HasBPM = true
	}
	return d, true
}

// Save stores a descriptor for a path, replacing any previous row
func (s *Store) Save(path string, modTime int64, d analysis.Descriptor) error {
	var bpm sql.NullInt64
	if d.HasBPM {
		bpm = sql.NullInt64{Int64: int64(d.BPM), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO track_descriptors (path, mod_time, bpm, camelot, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mod_time = excluded.mod_time, bpm = excluded.bpm, camelot = excluded.camelot`,
		path, modTime, bpm, d.Camelot, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving descriptor for %s: %w", path, err)
	}
	return nil
}

// Remove deletes the stored descriptor for a path
func (s *Store) Remove(path string) error {
	if _, err := s.db.Exec(`DELETE FROM track_descriptors WHERE path = ?`, path); err != nil {
		return fmt.Errorf("removing descriptor for %s: %w", path, err)
	}
	return nil
}

// Cleanup removes rows whose files no longer exist on disk
func (s *Store) Cleanup() {
	rows, err := s.db.Query(`SELECT path FROM track_descriptors`)
	if err != nil {
		logging.Warn("Descriptor cleanup query failed", logging.Fields{"error": err.Error()})
		return
	}
	defer rows.Close()

	var toDelete []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			toDelete = append(toDelete, path)
		}
	}
	if err := rows.Err(); err != nil {
		logging.Warn("Descriptor cleanup iteration failed", logging.Fields{"error": err.Error()})
	}

	for _, path := range toDelete {
		if err := s.Remove(path); err != nil {
			logging.Warn("Descriptor cleanup delete failed", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	if len(toDelete) > 0 {
		logging.Info("Descriptor cleanup removed stale rows", logging.Fields{"removed": len(toDelete)})
	}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
