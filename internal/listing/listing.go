// Package listing gathers the filesystem facts the analysis engine works
// from: a shallow directory listing, aggregate subtree stats, small reads
// of recognized manifest files, and bounded source samples. Classification
// and scoring are pure functions over a Listing; all I/O happens here.
package listing

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one shallow directory entry.
type Entry struct {
	Name  string
	IsDir bool
}

// Stats are aggregate subtree statistics. ModifiedAt and FileCount form
// the cache fingerprint for a project.
type Stats struct {
	FileCount   int
	SizeBytes   int64
	ModifiedAt  time.Time
	LargestFile int64
	MaxDepth    int
}

// Sample is a bounded read of one source file, used for content heuristics.
type Sample struct {
	RelPath string
	Content string
}

// Listing is everything gathered for one candidate project directory.
type Listing struct {
	// Path is the absolute path of the directory.
	Path string

	// Entries are the shallow children in natural filesystem order.
	Entries []Entry

	// Stats cover the whole subtree below Path.
	Stats Stats

	// ExtCounts is a histogram of source-file extensions in the subtree,
	// e.g. ".py" -> 14.
	ExtCounts map[string]int

	// Manifests maps recognized manifest filenames to their contents,
	// truncated at maxManifestBytes.
	Manifests map[string][]byte

	// ManifestMtimes records the modification time of each manifest read,
	// used for lockfile staleness checks.
	ManifestMtimes map[string]time.Time

	// Samples are bounded reads of small source files for content
	// heuristics (secret patterns). Order is deterministic.
	Samples []Sample

	// TestFileCount counts files matching common test naming conventions.
	TestFileCount int

	// MinifiedCount counts minified/bundled artifacts found among sources.
	MinifiedCount int
}

// Options bound the gathering work per directory.
type Options struct {
	// SkipDirs are directory names never descended into.
	SkipDirs map[string]bool

	// MaxSamples caps the number of source files read for content
	// heuristics. Zero disables sampling.
	MaxSamples int

	// MaxSampleBytes caps each sample read.
	MaxSampleBytes int64
}

const maxManifestBytes = 64 * 1024

// DefaultSkipDirs are vendored, generated, and VCS directories that never
// contain project signal and can balloon walk times.
var DefaultSkipDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true, "bower_components": true,
	"venv": true, ".venv": true, "env": true, "__pycache__": true,
	".pytest_cache": true, ".mypy_cache": true, ".tox": true,
	"target": true, "dist": true, "build": true, "out": true,
	".next": true, ".nuxt": true, ".svelte-kit": true,
	".idea": true, ".vscode": true, ".cache": true,
	"vendor": true, ".gradle": true, ".terraform": true,
}

// DefaultOptions returns the gathering bounds used by the scanner.
func DefaultOptions() Options {
	return Options{
		SkipDirs:       DefaultSkipDirs,
		MaxSamples:     20,
		MaxSampleBytes: 128 * 1024,
	}
}

// manifestNames are the files whose contents classification and scoring
// may inspect. Kept in sync with the classifier rule table.
var manifestNames = map[string]bool{
	"package.json": true, "pyproject.toml": true, "requirements.txt": true,
	"setup.py": true, "Cargo.toml": true, "go.mod": true, "pom.xml": true,
	"build.gradle": true, "composer.json": true, "Gemfile": true,
	"pubspec.yaml": true, "docker-compose.yml": true, "mkdocs.yml": true,
	"Makefile": true, "CMakeLists.txt": true, "Dockerfile": true,
	"package-lock.json": true, "yarn.lock": true, "Cargo.lock": true,
	"go.sum": true, "poetry.lock": true, "Gemfile.lock": true,
	"composer.lock": true, "README.md": true, "README.rst": true,
	"README.txt": true, "README": true,
}

// sourceExts are extensions counted in the language histogram and eligible
// for sampling. Documentation and data formats are excluded so they never
// dominate detection.
var sourceExts = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".mjs": true, ".ts": true,
	".tsx": true, ".go": true, ".rs": true, ".java": true, ".kt": true,
	".scala": true, ".c": true, ".h": true, ".cpp": true, ".cc": true,
	".hpp": true, ".cs": true, ".php": true, ".rb": true, ".swift": true,
	".m": true, ".dart": true, ".sh": true, ".bash": true, ".ps1": true,
	".lua": true, ".pl": true, ".r": true, ".jl": true, ".ex": true,
	".exs": true, ".hs": true, ".clj": true, ".vue": true, ".svelte": true,
	".tf": true, ".sql": true, ".ipynb": true,
}

// Collect gathers a full Listing for dir. Symlinks are never followed.
// A failed shallow read returns the error; failures deeper in the subtree
// are absorbed (partial stats are better than none).
func Collect(dir string, opts Options) (*Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	l := &Listing{
		Path:           dir,
		ExtCounts:      make(map[string]int),
		Manifests:      make(map[string][]byte),
		ManifestMtimes: make(map[string]time.Time),
	}

	for _, e := range entries {
		l.Entries = append(l.Entries, Entry{Name: e.Name(), IsDir: e.IsDir()})
		if e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if !e.IsDir() && manifestNames[e.Name()] {
			readManifest(l, dir, e.Name(), opts)
		}
	}

	walkSubtree(dir, opts, l)
	return l, nil
}

// SubtreeStats recomputes only the aggregate stats for dir, using the same
// walk rules as Collect. This is the cache fingerprint path.
func SubtreeStats(dir string, opts Options) (Stats, error) {
	if _, err := os.Lstat(dir); err != nil {
		return Stats{}, err
	}
	l := &Listing{Path: dir}
	statsOnly := opts
	statsOnly.MaxSamples = 0
	walkSubtree(dir, statsOnly, l)
	return l.Stats, nil
}

func readManifest(l *Listing, dir, name string, opts Options) {
	path := filepath.Join(dir, name)
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	data, err := readCapped(path, maxManifestBytes)
	if err != nil {
		return
	}
	l.Manifests[name] = data
	l.ManifestMtimes[name] = info.ModTime()
}

// walkSubtree accumulates stats, the extension histogram, test/minified
// counts, and source samples. filepath.WalkDir lstats entries, so symlinked
// directories are reported as non-dirs and never descended into.
func walkSubtree(dir string, opts Options, l *Listing) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // unreadable corner of the subtree; keep going
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if path != dir && opts.SkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if depth := relDepth(dir, path); depth > l.Stats.MaxDepth {
				l.Stats.MaxDepth = depth
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		l.Stats.FileCount++
		l.Stats.SizeBytes += info.Size()
		if info.Size() > l.Stats.LargestFile {
			l.Stats.LargestFile = info.Size()
		}
		if info.ModTime().After(l.Stats.ModifiedAt) {
			l.Stats.ModifiedAt = info.ModTime()
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if l.ExtCounts != nil && sourceExts[ext] {
			l.ExtCounts[ext]++
		}
		if isTestFile(name) || isTestDir(filepath.Dir(path)) {
			l.TestFileCount++
		}
		if isMinified(name) {
			l.MinifiedCount++
		}

		if opts.MaxSamples > 0 && len(l.Samples) < opts.MaxSamples &&
			sourceExts[ext] && info.Size() <= opts.MaxSampleBytes {
			if content, rerr := readCapped(path, opts.MaxSampleBytes); rerr == nil {
				rel, _ := filepath.Rel(dir, path)
				l.Samples = append(l.Samples, Sample{RelPath: rel, Content: string(content)})
			}
		}
		return nil
	})
}

func relDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// isTestFile matches the test naming conventions of the languages the
// classifier recognizes.
func isTestFile(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "_test.go"),
		strings.HasSuffix(lower, "_test.py"),
		strings.HasPrefix(lower, "test_") && strings.HasSuffix(lower, ".py"),
		strings.HasSuffix(lower, ".test.js"),
		strings.HasSuffix(lower, ".test.ts"),
		strings.HasSuffix(lower, ".test.tsx"),
		strings.HasSuffix(lower, ".spec.js"),
		strings.HasSuffix(lower, ".spec.ts"),
		strings.HasSuffix(lower, "_spec.rb"),
		strings.HasSuffix(lower, "test.java"):
		return true
	}
	return false
}

// isTestDir reports whether any path segment is a conventional test
// directory name.
func isTestDir(dir string) bool {
	for _, seg := range strings.Split(dir, string(filepath.Separator)) {
		switch strings.ToLower(seg) {
		case "tests", "test", "__tests__", "spec", "testdata":
			return true
		}
	}
	return false
}

func isMinified(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".min.js") ||
		strings.HasSuffix(lower, ".min.css") ||
		strings.HasSuffix(lower, ".bundle.js")
}

// readCapped reads at most limit bytes of the file at path.
func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}
