package health

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/projlens/projlens/internal/classifier"
	"github.com/projlens/projlens/internal/listing"
)

// Score computes the health report for one classified project. It never
// fails: a degenerate listing simply produces low sub-scores with issues
// explaining why.
func Score(l *listing.Listing, cls *classifier.Classification, w Weights) Report {
	s := &scoring{l: l, cls: cls}

	subs := map[string]int{
		MetricDocumentation: s.documentation(),
		MetricTesting:       s.testing(),
		MetricDependencies:  s.dependencies(),
		MetricSecurity:      s.security(),
		MetricCodeQuality:   s.codeQuality(),
		MetricPerformance:   s.performance(),
	}

	overall := w.CodeQuality*float64(subs[MetricCodeQuality]) +
		w.Documentation*float64(subs[MetricDocumentation]) +
		w.Testing*float64(subs[MetricTesting]) +
		w.Dependencies*float64(subs[MetricDependencies]) +
		w.Security*float64(subs[MetricSecurity]) +
		w.Performance*float64(subs[MetricPerformance])

	return Report{
		Overall:   clamp(int(math.Round(overall))),
		Subscores: subs,
		Issues:    s.issues,
	}
}

type scoring struct {
	l      *listing.Listing
	cls    *classifier.Classification
	issues []Issue
}

func (s *scoring) issue(metric, severity, format string, args ...any) {
	s.issues = append(s.issues, Issue{
		Metric:   metric,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (s *scoring) hasEntry(names ...string) bool {
	for _, e := range s.l.Entries {
		for _, n := range names {
			if e.Name == n {
				return true
			}
		}
	}
	return false
}

func (s *scoring) hasEntryPrefix(prefix string) bool {
	for _, e := range s.l.Entries {
		if strings.HasPrefix(e.Name, prefix) {
			return true
		}
	}
	return false
}

// readmeNonTrivialBytes is the minimum README size that counts as real
// documentation rather than a placeholder.
const readmeNonTrivialBytes = 256

func (s *scoring) documentation() int {
	score := 0

	var readme []byte
	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		if data, ok := s.l.Manifests[name]; ok {
			readme = data
			break
		}
	}
	if readme != nil {
		score += 50
		if len(readme) >= readmeNonTrivialBytes {
			score += 20
		} else {
			s.issue(MetricDocumentation, SeverityInfo, "README is only %d bytes; consider expanding it", len(readme))
		}
	} else {
		s.issue(MetricDocumentation, SeverityWarning, "no README found")
	}

	if s.hasEntry("docs", "doc", "documentation", "wiki") {
		score += 15
	}
	if s.hasEntry("CHANGELOG.md", "CONTRIBUTING.md", "LICENSE", "LICENSE.md", "LICENSE.txt") {
		score += 15
	}

	return clamp(score)
}

func (s *scoring) testing() int {
	if s.l.TestFileCount == 0 {
		s.issue(MetricTesting, SeverityWarning, "no test files or test directories detected")
		return 0
	}

	// Tests exist; full credit needs coverage tooling configured.
	score := 70
	if s.hasEntry("codecov.yml", ".codecov.yml", ".coveragerc", "jest.config.js", "jest.config.ts", "vitest.config.js", "vitest.config.ts") {
		score += 30
	} else {
		s.issue(MetricTesting, SeverityInfo, "tests present but no coverage tooling configured")
	}
	return clamp(score)
}

// lockfiles pair a manifest with the lockfile that pins it.
var lockfiles = []string{
	"package-lock.json", "yarn.lock", "Cargo.lock", "go.sum",
	"poetry.lock", "Gemfile.lock", "composer.lock",
}

var depManifests = []string{
	"package.json", "pyproject.toml", "requirements.txt", "Cargo.toml",
	"go.mod", "pom.xml", "build.gradle", "composer.json", "Gemfile",
	"pubspec.yaml",
}

// lockfileStaleAfter is how far a lockfile may lag the newest tracked file
// before the dependencies sub-score is penalized.
const lockfileStaleAfter = 180 * 24 * time.Hour

func (s *scoring) dependencies() int {
	// Surface classification parse failures here: a manifest that cannot
	// be read is first of all a dependency-hygiene problem.
	for _, pi := range s.cls.ParseIssues {
		s.issue(MetricDependencies, SeverityInfo, "%s", pi)
	}

	hasManifest := false
	for _, m := range depManifests {
		if _, ok := s.l.Manifests[m]; ok {
			hasManifest = true
			break
		}
	}
	if !hasManifest {
		s.issue(MetricDependencies, SeverityWarning, "no dependency manifest found")
		return 20
	}

	score := 40
	var lockName string
	for _, lf := range lockfiles {
		if _, ok := s.l.Manifests[lf]; ok {
			lockName = lf
			break
		}
	}
	if lockName != "" {
		score += 30
	}

	if s.pinned(lockName) {
		score += 30
	} else {
		s.issue(MetricDependencies, SeverityWarning, "dependencies are not pinned; add a lockfile or pin versions")
	}

	if lockName != "" {
		lockMtime := s.l.ManifestMtimes[lockName]
		if !lockMtime.IsZero() && s.l.Stats.ModifiedAt.Sub(lockMtime) > lockfileStaleAfter {
			score -= 20
			s.issue(MetricDependencies, SeverityWarning, "%s lags the newest source change by more than %d days", lockName, int(lockfileStaleAfter.Hours()/24))
		}
	}

	return clamp(score)
}

// pinned reports whether dependency versions are resolvable to exact
// versions: a lockfile, a pinned requirements.txt, or a go.mod (always
// exact) all count.
func (s *scoring) pinned(lockName string) bool {
	if lockName != "" {
		return true
	}
	if _, ok := s.l.Manifests["go.mod"]; ok {
		return true
	}
	if req, ok := s.l.Manifests["requirements.txt"]; ok {
		return strings.Contains(string(req), "==")
	}
	return false
}

// secretPattern is a deliberately coarse assignment-of-literal heuristic,
// not entropy analysis.
var secretPattern = regexp.MustCompile(`(?i)(password|passwd|secret|api_key|apikey|auth_token|access_key)\s*[:=]\s*["'][^"']{4,}["']`)

func (s *scoring) security() int {
	score := 100

	if s.hasEntry(".env") {
		score -= 30
		s.issue(MetricSecurity, SeverityWarning, ".env file tracked in project root; check it for secrets")
	}

	for _, sample := range s.l.Samples {
		if m := secretPattern.FindString(sample.Content); m != "" {
			score -= 40
			s.issue(MetricSecurity, SeverityCritical, "possible hardcoded credential in %s", sample.RelPath)
			break
		}
	}

	if !s.hasEntry(".gitignore") {
		score -= 10
		s.issue(MetricSecurity, SeverityInfo, "no .gitignore; generated files and secrets may get committed")
	}

	// Dependency-audit configuration is a bonus, not a requirement.
	if s.hasEntry(".snyk", "audit-ci.json", ".github") {
		score += 10
	}

	return clamp(score)
}

var lintConfigs = []string{
	".eslintrc", ".eslintrc.js", ".eslintrc.json", ".eslintrc.yml",
	".pylintrc", "ruff.toml", ".golangci.yml", ".golangci.yaml",
	".rubocop.yml", ".clang-format",
}

const (
	avgFileSizeCeiling = 100 * 1024
	maxHealthyDepth    = 10
)

func (s *scoring) codeQuality() int {
	score := 50

	if s.hasEntry(lintConfigs...) {
		score += 20
	}
	if s.hasEntry(".editorconfig") {
		score += 10
	}
	if s.hasEntry("src", "lib", "internal", "app") {
		score += 10
	}

	if s.l.MinifiedCount > 0 {
		score -= 20
		s.issue(MetricCodeQuality, SeverityWarning, "%d minified/bundled files mixed in with source", s.l.MinifiedCount)
	}
	if s.l.Stats.FileCount > 0 {
		avg := s.l.Stats.SizeBytes / int64(s.l.Stats.FileCount)
		if avg > avgFileSizeCeiling {
			score -= 20
			s.issue(MetricCodeQuality, SeverityInfo, "average file size is %d KB; large files are hard to review", avg/1024)
		}
	}
	if s.l.Stats.FileCount < 3 {
		score -= 10
		s.issue(MetricCodeQuality, SeverityInfo, "only %d files; project may be incomplete", s.l.Stats.FileCount)
	}
	if s.l.Stats.MaxDepth > maxHealthyDepth {
		score -= 10
		s.issue(MetricCodeQuality, SeverityInfo, "directory nesting reaches depth %d", s.l.Stats.MaxDepth)
	}

	return clamp(score)
}

const (
	oversizedFileBytes  = 10 * 1024 * 1024
	oversizedTreeBytes  = 1 << 30
	perfBuildConfigs    = 20
	perfOversizedFile   = 30
	perfOversizedTree   = 20
	performanceBaseline = 70
)

func (s *scoring) performance() int {
	score := performanceBaseline

	// Build tooling that produces optimized artifacts.
	if s.hasEntry("webpack.config.js", "vite.config.js", "vite.config.ts", "Makefile", "CMakeLists.txt", "Cargo.toml", "go.mod") ||
		s.hasEntryPrefix("rollup.config") {
		score += perfBuildConfigs
	}

	if s.l.Stats.LargestFile > oversizedFileBytes {
		score -= perfOversizedFile
		s.issue(MetricPerformance, SeverityWarning, "largest tracked file is %d MB", s.l.Stats.LargestFile/(1024*1024))
	}
	if s.l.Stats.SizeBytes > oversizedTreeBytes {
		score -= perfOversizedTree
		s.issue(MetricPerformance, SeverityInfo, "project tree exceeds 1 GB")
	}

	return clamp(score)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
