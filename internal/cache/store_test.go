package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/projlens/projlens/internal/listing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, listing.DefaultOptions())
}

func testEntry(mod int64, files int, record string) Entry {
	return Entry{
		Fingerprint: Fingerprint{ModifiedAt: mod, FileCount: files},
		Record:      json.RawMessage(record),
	}
}

// ---------------------------------------------------------------------------
// Put / Lookup
// ---------------------------------------------------------------------------

func TestStore_PutAndLookup(t *testing.T) {
	s := newTestStore(t)

	want := testEntry(12345, 7, `{"name":"alpha"}`)
	require.NoError(t, s.Put("/projects/alpha", want))

	got, err := s.Lookup("/projects/alpha")
	require.NoError(t, err)
	require.Equal(t, want.Fingerprint, got.Fingerprint)
	require.JSONEq(t, string(want.Record), string(got.Record))
}

func TestStore_LookupMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Lookup("/projects/nowhere")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplacesAtomically(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put("/projects/alpha", testEntry(1, 1, `{"v":1}`)))
	require.NoError(t, s.Put("/projects/alpha", testEntry(2, 2, `{"v":2}`)))

	got, err := s.Lookup("/projects/alpha")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Fingerprint.ModifiedAt)
	require.JSONEq(t, `{"v":2}`, string(got.Record))

	count, _, err := s.Info()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStore_ConcurrentPutsKeepEntriesWellFormed(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = s.Put("/projects/shared", testEntry(int64(n), n, `{"writer":`+string(rune('0'+n))+`}`))
			}
		}(i)
	}
	wg.Wait()

	// A racing lookup must see one complete entry, never a torn one.
	got, err := s.Lookup("/projects/shared")
	require.NoError(t, err)
	require.Equal(t, got.Fingerprint.FileCount, int(got.Fingerprint.ModifiedAt))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got.Record, &decoded))
}

// ---------------------------------------------------------------------------
// Invalidation
// ---------------------------------------------------------------------------

func TestStore_Invalidate(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put("/projects/alpha", testEntry(1, 1, `{}`)))
	require.NoError(t, s.Put("/projects/bravo", testEntry(2, 2, `{}`)))

	require.NoError(t, s.Invalidate("/projects/alpha"))

	_, err := s.Lookup("/projects/alpha")
	require.ErrorIs(t, err, ErrNotFound)

	// Unrelated entries survive.
	_, err = s.Lookup("/projects/bravo")
	require.NoError(t, err)
}

func TestStore_InvalidateAll(t *testing.T) {
	s := newTestStore(t)

	for _, p := range []string{"/a", "/b", "/c"} {
		require.NoError(t, s.Put(p, testEntry(1, 1, `{}`)))
	}
	require.NoError(t, s.InvalidateAll())

	count, _, err := s.Info()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// ---------------------------------------------------------------------------
// Fingerprints
// ---------------------------------------------------------------------------

func TestStore_FingerprintMatchesUnchangedTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	s := newTestStore(t)
	st, err := listing.SubtreeStats(dir, listing.DefaultOptions())
	require.NoError(t, err)

	e := Entry{Fingerprint: FingerprintOf(st), Record: json.RawMessage(`{}`)}
	require.True(t, s.FingerprintMatches(dir, e))
}

func TestStore_FingerprintMismatchAfterChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	s := newTestStore(t)
	st, err := listing.SubtreeStats(dir, listing.DefaultOptions())
	require.NoError(t, err)
	e := Entry{Fingerprint: FingerprintOf(st), Record: json.RawMessage(`{}`)}

	// Adding a file changes the file count.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.go"), []byte("package main\n"), 0o644))
	require.False(t, s.FingerprintMatches(dir, e))
}

func TestStore_FingerprintMismatchOnMtimeOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	s := newTestStore(t)
	st, err := listing.SubtreeStats(dir, listing.DefaultOptions())
	require.NoError(t, err)
	e := Entry{Fingerprint: FingerprintOf(st), Record: json.RawMessage(`{}`)}

	// Same byte count, newer mtime.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	require.False(t, s.FingerprintMatches(dir, e))
}

func TestStore_FingerprintMismatchOnMissingPath(t *testing.T) {
	s := newTestStore(t)
	e := Entry{Fingerprint: Fingerprint{ModifiedAt: 1, FileCount: 1}}
	require.False(t, s.FingerprintMatches(filepath.Join(t.TempDir(), "gone"), e))
}

// ---------------------------------------------------------------------------
// Open / corruption
// ---------------------------------------------------------------------------

func TestOpen_CreatesParentDirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db, listing.DefaultOptions())
	require.NoError(t, s.Put("/a", testEntry(1, 1, `{}`)))
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	s := NewStore(db, listing.DefaultOptions())
	require.NoError(t, s.Put("/projects/alpha", testEntry(9, 9, `{"name":"alpha"}`)))
	require.NoError(t, db.Close())

	db, err = Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewStore(db, listing.DefaultOptions()).Lookup("/projects/alpha")
	require.NoError(t, err)
	require.Equal(t, int64(9), got.Fingerprint.ModifiedAt)
}

func TestOpen_CorruptDatabaseStartsFresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("this is not a sqlite file"), 0o644))

	// Corruption degrades to an empty cache, never an error.
	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db, listing.DefaultOptions())
	_, err = s.Lookup("/anything")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Put("/a", testEntry(1, 1, `{}`)))
}
