// Package config provides configuration loading and defaults for projlens.
package config

// DefaultProjectsDir are the default directories to scan for projects.
var DefaultProjectsDir = []string{"~/Projects"}

// DefaultConfigDir is the default location for projlens configuration and
// the cache database.
const DefaultConfigDir = "~/.config/projlens"

// DefaultCacheName is the filename for the SQLite cache database.
const DefaultCacheName = "cache.db"

// DefaultCacheEnabled controls whether scan results are persisted and
// reused across runs.
const DefaultCacheEnabled = true

// DefaultBackgroundProcessing controls whether scans run through the
// background runner.
const DefaultBackgroundProcessing = true

// DefaultLazyLoading skips health scoring on the first pass when enabled.
const DefaultLazyLoading = false

// DefaultMaxProjectsPerScan caps how many projects one scan may record.
const DefaultMaxProjectsPerScan = 200

// DefaultMaxDepth is how many levels below each root are visited.
const DefaultMaxDepth = 3

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
