package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB connection backing the project cache.
type DB struct {
	conn *sql.DB

	// path is empty for in-memory databases.
	path string
}

// Open opens or creates the cache database at dbPath, creating the parent
// directory if needed. A corrupt or unopenable database is removed and
// recreated; if that also fails the cache falls back to in-memory. Cache
// corruption is a performance regression, never a scan failure.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return OpenInMemory()
	}

	db, err := open(dbPath)
	if err == nil {
		return db, nil
	}

	// Corrupt backing store: start over with an empty cache.
	_ = os.Remove(dbPath)
	if db, err = open(dbPath); err == nil {
		return db, nil
	}
	return OpenInMemory()
}

// OpenInMemory opens an in-memory cache, used for tests and as the
// degraded mode when the on-disk store cannot be opened.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection to :memory: would get its own empty
	// database; a single connection also serializes writers.
	conn.SetMaxOpenConns(1)
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent lookups cheap while a background scan writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	// One connection avoids SQLITE_BUSY between overlapping writers.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const currentSchemaVersion = 1

// migrate brings the cache schema up to date.
func (db *DB) migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}

func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS project_cache (
			path        TEXT PRIMARY KEY,
			modified_at INTEGER NOT NULL,
			file_count  INTEGER NOT NULL,
			record      BLOB NOT NULL,
			cached_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_cache_cached_at ON project_cache(cached_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}
