package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/projlens/projlens/internal/cache"
	"github.com/projlens/projlens/internal/classifier"
	"github.com/projlens/projlens/internal/health"
	"github.com/projlens/projlens/internal/listing"
)

// Scanner orchestrates classification, scoring, and the cache store.
// Configure it once, then call Scan; each call produces an independent
// Result.
type Scanner struct {
	// Store is consulted before analyzing and updated after. Nil disables
	// caching entirely.
	Store *cache.Store

	// Weights is the health sub-metric weight vector.
	Weights health.Weights

	// Opts bound the per-directory listing work.
	Opts listing.Options

	// MaxDepth is the traversal ceiling below each root; directories
	// beyond it are not visited at all, not even for fingerprinting.
	MaxDepth int

	// MaxProjects caps records across the whole call; once reached the
	// result is marked partial.
	MaxProjects int

	// LazyScoring skips health scoring on this pass, leaving Health nil.
	LazyScoring bool

	// classifyFn and scoreFn exist so tests can count invocations and
	// assert that a cache hit short-circuits both.
	classifyFn func(*listing.Listing) *classifier.Classification
	scoreFn    func(*listing.Listing, *classifier.Classification, health.Weights) health.Report
}

// New returns a Scanner with the built-in classifier and scorer.
func New(store *cache.Store, weights health.Weights, maxDepth, maxProjects int) *Scanner {
	c := classifier.New()
	return &Scanner{
		Store:       store,
		Weights:     weights,
		Opts:        listing.DefaultOptions(),
		MaxDepth:    maxDepth,
		MaxProjects: maxProjects,
		classifyFn:  c.Classify,
		scoreFn:     health.Score,
	}
}

// scanState is the mutable bookkeeping for one Scan call, shared across
// the per-root workers.
type scanState struct {
	mu       sync.Mutex
	seen     int
	estimate int
	partial  bool
	stats    Stats
	progress Progress
}

func (st *scanState) addEstimate(n int) {
	st.mu.Lock()
	st.estimate += n
	st.mu.Unlock()
	st.report()
}

// reserve claims a project slot under the global cap, incrementing the
// count in the same critical section so concurrent roots can never admit
// against a stale value. The claim happens at admission time, before a
// project's children are visited, so a parent always outranks its own
// sub-projects. Returns false once the cap is reached, which also marks
// the result partial.
func (st *scanState) reserve(max int) bool {
	st.mu.Lock()
	if max > 0 && st.seen >= max {
		st.partial = true
		st.mu.Unlock()
		return false
	}
	st.seen++
	st.mu.Unlock()
	st.report()
	return true
}

func (st *scanState) markPartial() {
	st.mu.Lock()
	st.partial = true
	st.mu.Unlock()
}

func (st *scanState) isPartial() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.partial
}

func (st *scanState) report() {
	st.mu.Lock()
	seen, est, fn := st.seen, st.estimate, st.progress
	st.mu.Unlock()
	if fn != nil {
		if est < seen {
			est = seen
		}
		fn(seen, est)
	}
}

func (st *scanState) bump(f func(*Stats)) {
	st.mu.Lock()
	f(&st.stats)
	st.mu.Unlock()
}

// Scan walks each root and returns the forest of detected projects. The
// roots themselves are grouping levels, never candidates; their
// subdirectories are. Roots are scanned concurrently but the result keeps
// the caller's root order, and sibling order within a root is the
// filesystem's natural directory order, so repeated scans of an unchanged
// tree are byte-stable. A non-existent root fails the whole call before
// any work starts; a cancelled context yields the partial forest
// accumulated so far, not an error.
func (s *Scanner) Scan(ctx context.Context, roots []string, progress Progress) (*Result, error) {
	if len(roots) == 0 {
		return nil, errors.New("scan: no root paths configured")
	}
	abs := make([]string, len(roots))
	for i, root := range roots {
		a, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("scan: resolving root %q: %w", root, err)
		}
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("scan: root %q: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("scan: root %q is not a directory", root)
		}
		abs[i] = a
	}

	st := &scanState{progress: progress}
	var issues []string

	perRoot := make([][]ProjectRecord, len(abs))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range abs {
		i, root := i, root
		g.Go(func() error {
			perRoot[i] = s.scanRoot(gctx, root, st)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		st.markPartial()
		issues = append(issues, "scan cancelled before completion")
	}

	var forest []ProjectRecord
	for _, records := range perRoot {
		forest = append(forest, records...)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return &Result{
		Projects: forest,
		Partial:  st.partial,
		Issues:   issues,
		Stats:    st.stats,
	}, nil
}

// scanRoot lists one root and descends into its candidate subdirectories.
func (s *Scanner) scanRoot(ctx context.Context, root string, st *scanState) []ProjectRecord {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !st.reserve(s.MaxProjects) {
			return nil
		}
		return []ProjectRecord{stubRecord(root, err)}
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() && traversable(e.Name(), s.Opts) {
			subdirs = append(subdirs, e.Name())
		}
	}
	st.addEstimate(len(subdirs))

	var forest []ProjectRecord
	for _, sub := range subdirs {
		forest = append(forest, s.scanDir(ctx, filepath.Join(root, sub), 1, st)...)
	}
	return forest
}

// scanDir visits one candidate directory and returns the project records
// rooted at it: one record if it classifies as a project, its promoted
// descendants if it is only a grouping folder, or nothing.
func (s *Scanner) scanDir(ctx context.Context, dir string, depth int, st *scanState) []ProjectRecord {
	// Cancellation is cooperative, checked between directory visits.
	if ctx.Err() != nil {
		st.markPartial()
		return nil
	}
	if depth > s.MaxDepth {
		return nil
	}
	st.bump(func(t *Stats) { t.DirsVisited++ })

	// The store's fingerprint check is the sole reuse authority. On a hit
	// the cached record is returned verbatim: no listing gather, no
	// classification, no scoring, no recursion. An unscored record left
	// by a lazy pass is only served when this pass is lazy too; otherwise
	// it falls through to re-analysis so the deferred score gets computed
	// and persisted.
	if s.Store != nil {
		if entry, lerr := s.Store.Lookup(dir); lerr == nil && s.Store.FingerprintMatches(dir, entry) {
			var rec ProjectRecord
			if uerr := json.Unmarshal(entry.Record, &rec); uerr == nil &&
				(rec.Health != nil || s.LazyScoring) {
				if !st.reserve(s.MaxProjects) {
					return nil
				}
				st.bump(func(t *Stats) { t.CacheHits++ })
				return []ProjectRecord{rec}
			}
		}
	}

	l, err := listing.Collect(dir, s.Opts)
	if err != nil {
		// One unreadable directory never aborts the scan: record a stub
		// and move on to siblings. Stubs count against the cap like any
		// other record.
		if !st.reserve(s.MaxProjects) {
			return nil
		}
		return []ProjectRecord{stubRecord(dir, err)}
	}

	subdirs := candidateSubdirs(l, s.Opts)
	st.addEstimate(len(subdirs))

	cls := s.classifyFn(l)
	st.bump(func(t *Stats) { t.Classified++ })
	if cls == nil {
		// Grouping folder: traverse for children, promote them to this
		// level, produce no record of its own.
		var promoted []ProjectRecord
		for _, sub := range subdirs {
			promoted = append(promoted, s.scanDir(ctx, filepath.Join(dir, sub), depth+1, st)...)
		}
		return promoted
	}

	if !st.reserve(s.MaxProjects) {
		return nil
	}
	if s.Store != nil {
		st.bump(func(t *Stats) { t.CacheMisses++ })
	}

	rec := ProjectRecord{
		Path:       dir,
		Name:       filepath.Base(dir),
		Kind:       cls.Kind,
		Languages:  cls.Languages,
		Frameworks: cls.Frameworks,
		SizeBytes:  l.Stats.SizeBytes,
		FileCount:  l.Stats.FileCount,
		ModifiedAt: l.Stats.ModifiedAt,
	}
	if !s.LazyScoring {
		report := s.scoreFn(l, cls, s.Weights)
		rec.Health = &report
		st.bump(func(t *Stats) { t.Scored++ })
	}

	for _, sub := range subdirs {
		rec.Children = append(rec.Children, s.scanDir(ctx, filepath.Join(dir, sub), depth+1, st)...)
	}

	// Commit before returning so a later cancellation still keeps this
	// project's work. An interrupted scan leaves the store valid, just
	// less complete. Once the result is partial nothing more is cached:
	// a record whose children were truncated by the cap must not be
	// served verbatim on the next run.
	if s.Store != nil && ctx.Err() == nil && !st.isPartial() {
		if data, merr := json.Marshal(rec); merr == nil {
			_ = s.Store.Put(dir, cache.Entry{
				Fingerprint: cache.FingerprintOf(l.Stats),
				Record:      data,
			})
		}
	}

	return []ProjectRecord{rec}
}

func stubRecord(dir string, err error) ProjectRecord {
	return ProjectRecord{
		Path:   dir,
		Name:   filepath.Base(dir),
		Kind:   classifier.KindUnknown,
		Issues: []string{fmt.Sprintf("directory could not be read: %v", err)},
	}
}

// candidateSubdirs returns the traversable child directories in natural
// filesystem order. Symlinked directories are reported as non-dirs by the
// listing and therefore never followed.
func candidateSubdirs(l *listing.Listing, opts listing.Options) []string {
	var subdirs []string
	for _, e := range l.Entries {
		if e.IsDir && traversable(e.Name, opts) {
			subdirs = append(subdirs, e.Name)
		}
	}
	return subdirs
}

func traversable(name string, opts listing.Options) bool {
	return !strings.HasPrefix(name, ".") && !opts.SkipDirs[name]
}
