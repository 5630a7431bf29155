// Package scanner walks configured root directories, detects project
// boundaries, scores health, and assembles the result forest, consulting
// the cache store to skip unchanged projects.
package scanner

import (
	"time"

	"github.com/projlens/projlens/internal/classifier"
	"github.com/projlens/projlens/internal/health"
)

// ProjectRecord is one detected project. Records are immutable once
// returned: every scan builds fresh instances, so a result being rendered
// is never mutated by a later background scan.
type ProjectRecord struct {
	// Path is the absolute filesystem path, unique within a scan.
	Path string `json:"path"`

	// Name is the final path segment.
	Name string `json:"name"`

	// Kind is the classified project kind.
	Kind classifier.Kind `json:"kind"`

	// Languages are the detected languages, primary first.
	Languages []string `json:"languages,omitempty"`

	// Frameworks are the detected framework identifiers.
	Frameworks []string `json:"frameworks,omitempty"`

	// SizeBytes and FileCount aggregate the subtree, computed once per scan.
	SizeBytes int64 `json:"size_bytes"`
	FileCount int   `json:"file_count"`

	// ModifiedAt is the newest modification time among tracked files.
	ModifiedAt time.Time `json:"modified_at"`

	// Health is the scoring report, or nil when scoring was skipped.
	Health *health.Report `json:"health,omitempty"`

	// Children are nested sub-projects in natural directory order.
	Children []ProjectRecord `json:"children,omitempty"`

	// Issues are scan-level problems for this record (unreadable
	// directory, etc.), distinct from health issues.
	Issues []string `json:"issues,omitempty"`
}

// Stats summarize one scan pass.
type Stats struct {
	DirsVisited int `json:"dirs_visited"`
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`
	Classified  int `json:"classified"`
	Scored      int `json:"scored"`
}

// Result is the output of one scan: a forest of project records plus the
// partial flag and any top-level issues.
type Result struct {
	Projects []ProjectRecord `json:"projects"`
	Partial  bool            `json:"partial"`
	Issues   []string        `json:"issues,omitempty"`
	Stats    Stats           `json:"stats"`
}

// Progress receives (projects seen, total estimate) as a scan advances.
// The estimate is the count of candidate directories discovered so far and
// only grows.
type Progress func(seen, estimate int)
