// Package runner executes scans on a background goroutine with explicit
// handles for cancellation and progress, keeping the interactive path
// responsive. One active scan per root: a Start overlapping an in-flight
// scan's roots is rejected with ErrScanActive rather than coalesced, so
// callers always know whose progress they are watching.
package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/projlens/projlens/internal/scanner"
)

// ErrScanActive is returned by Start when a requested root overlaps a scan
// already in flight.
var ErrScanActive = errors.New("runner: scan already running for an overlapping root")

// Request describes one background scan.
type Request struct {
	// Roots are the directories to scan.
	Roots []string

	// Progress, when non-nil, receives (projects seen, total estimate)
	// tuples as the scan advances. It is called from the scan goroutine.
	Progress scanner.Progress
}

// Handle tracks one in-flight scan.
type Handle struct {
	roots  []string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *scanner.Result
	err    error
}

// Cancel requests a cooperative stop. The scan finishes its current
// project, keeps the cache entries it already committed, and resolves with
// a result marked partial.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the scan has resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the scan resolves and returns its outcome. A
// cancelled scan returns a partial result and a nil error.
func (h *Handle) Result() (*scanner.Result, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Runner starts and tracks background scans.
type Runner struct {
	scanner *scanner.Scanner

	mu     sync.Mutex
	active []*Handle
}

// New returns a Runner wrapping the given scanner.
func New(s *scanner.Scanner) *Runner {
	return &Runner{scanner: s}
}

// Start launches the scan on a worker goroutine and returns its handle.
// It fails with ErrScanActive when any requested root overlaps (equals,
// contains, or is contained by) a root of an in-flight scan.
func (r *Runner) Start(req Request) (*Handle, error) {
	roots := make([]string, len(req.Roots))
	for i, root := range req.Roots {
		a, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		roots[i] = a
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		roots:  roots,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	for _, other := range r.active {
		if overlaps(roots, other.roots) {
			r.mu.Unlock()
			cancel()
			return nil, ErrScanActive
		}
	}
	r.active = append(r.active, h)
	r.mu.Unlock()

	go func() {
		defer close(h.done)
		defer r.remove(h)
		defer cancel()

		result, err := r.scanner.Scan(ctx, roots, req.Progress)
		h.mu.Lock()
		h.result, h.err = result, err
		h.mu.Unlock()
	}()

	return h, nil
}

// CancelAll cancels every in-flight scan.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	handles := append([]*Handle(nil), r.active...)
	r.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

func (r *Runner) remove(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, other := range r.active {
		if other == h {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return
		}
	}
}

// overlaps reports whether any path in a equals or is nested under any
// path in b, or vice versa.
func overlaps(a, b []string) bool {
	for _, p := range a {
		for _, q := range b {
			if p == q || nested(p, q) || nested(q, p) {
				return true
			}
		}
	}
	return false
}

// nested reports whether child is strictly below parent.
func nested(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}
