// Package cache persists per-project analysis results across runs, keyed
// by project path and guarded by an on-disk fingerprint. The record blob
// is opaque to the store; the scanner owns its encoding. All mutation goes
// through Put/Invalidate so a lookup racing a put sees either the old or
// the new entry, never a torn one.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/projlens/projlens/internal/listing"
)

// ErrNotFound is returned by Lookup when no entry exists for a path.
var ErrNotFound = errors.New("cache: entry not found")

// Fingerprint is the (modified_at, file_count) pair that decides whether a
// cached entry is still valid. ModifiedAt is unix nanoseconds of the
// newest tracked file.
type Fingerprint struct {
	ModifiedAt int64 `json:"modified_at"`
	FileCount  int   `json:"file_count"`
}

// FingerprintOf derives a Fingerprint from subtree stats.
func FingerprintOf(st listing.Stats) Fingerprint {
	return Fingerprint{ModifiedAt: st.ModifiedAt.UnixNano(), FileCount: st.FileCount}
}

// Entry is one persisted analysis result.
type Entry struct {
	Fingerprint Fingerprint
	Record      json.RawMessage
}

// Store is the persisted project-path -> Entry mapping. It is safe for
// concurrent use; the upsert in Put replaces entries atomically.
type Store struct {
	db   *DB
	opts listing.Options
}

// NewStore wraps an open cache database. The listing options must match
// the scanner's so recomputed fingerprints compare like for like.
func NewStore(db *DB, opts listing.Options) *Store {
	return &Store{db: db, opts: opts}
}

// Lookup returns the entry for path, or ErrNotFound.
func (s *Store) Lookup(path string) (Entry, error) {
	var e Entry
	row := s.db.conn.QueryRow(
		"SELECT modified_at, file_count, record FROM project_cache WHERE path = ?", path)
	err := row.Scan(&e.Fingerprint.ModifiedAt, &e.Fingerprint.FileCount, (*[]byte)(&e.Record))
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Put upserts the entry for path, replacing any prior one.
func (s *Store) Put(path string, e Entry) error {
	_, err := s.db.conn.Exec(`
		INSERT INTO project_cache (path, modified_at, file_count, record, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			modified_at = excluded.modified_at,
			file_count  = excluded.file_count,
			record      = excluded.record,
			cached_at   = excluded.cached_at`,
		path, e.Fingerprint.ModifiedAt, e.Fingerprint.FileCount, []byte(e.Record),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// Invalidate forces a miss for path on the next lookup.
func (s *Store) Invalidate(path string) error {
	_, err := s.db.conn.Exec("DELETE FROM project_cache WHERE path = ?", path)
	return err
}

// InvalidateAll empties the cache.
func (s *Store) InvalidateAll() error {
	_, err := s.db.conn.Exec("DELETE FROM project_cache")
	return err
}

// FingerprintMatches recomputes the on-disk fingerprint for path and
// compares it with the stored one. This is the sole authority for reuse:
// any mismatch, including an unreadable path, forces re-analysis.
func (s *Store) FingerprintMatches(path string, e Entry) bool {
	st, err := listing.SubtreeStats(path, s.opts)
	if err != nil {
		return false
	}
	return FingerprintOf(st) == e.Fingerprint
}

// Info returns the number of cached projects and the size of the backing
// file in bytes (zero for in-memory stores).
func (s *Store) Info() (count int, sizeBytes int64, err error) {
	row := s.db.conn.QueryRow("SELECT COUNT(*) FROM project_cache")
	if err := row.Scan(&count); err != nil {
		return 0, 0, err
	}
	if s.db.path != "" {
		if fi, serr := os.Stat(s.db.path); serr == nil {
			sizeBytes = fi.Size()
		}
	}
	return count, sizeBytes, nil
}
