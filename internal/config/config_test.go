package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/projlens/projlens/internal/health"
)

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.CacheEnabled {
		t.Error("cache should default to enabled")
	}
	if !cfg.BackgroundProcessing {
		t.Error("background processing should default to enabled")
	}
	if cfg.LazyLoading {
		t.Error("lazy loading should default to disabled")
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("max depth = %d, want %d", cfg.MaxDepth, DefaultMaxDepth)
	}
	if cfg.MaxProjectsPerScan != DefaultMaxProjectsPerScan {
		t.Errorf("max projects = %d, want %d", cfg.MaxProjectsPerScan, DefaultMaxProjectsPerScan)
	}
	if cfg.Weights != health.DefaultWeights {
		t.Errorf("weights = %+v, want defaults %+v", cfg.Weights, health.DefaultWeights)
	}
	if cfg.Output.Width != 80 {
		t.Errorf("output width = %d, want 80", cfg.Output.Width)
	}
}

func TestLoad_ReadsYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `projects_dir:
  - /tmp/projects
  - /tmp/work
cache_enabled: false
max_depth: 5
skip_dirs:
  - generated
weights:
  code_quality: 0.5
  documentation: 0.5
  testing: 0.0
  dependencies: 0.0
  security: 0.0
  performance: 0.0
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.ProjectsDir) != 2 || cfg.ProjectsDir[0] != "/tmp/projects" {
		t.Errorf("projects_dir = %v", cfg.ProjectsDir)
	}
	if cfg.CacheEnabled {
		t.Error("cache_enabled: false was not applied")
	}
	if cfg.MaxDepth != 5 {
		t.Errorf("max_depth = %d, want 5", cfg.MaxDepth)
	}
	if len(cfg.SkipDirs) != 1 || cfg.SkipDirs[0] != "generated" {
		t.Errorf("skip_dirs = %v", cfg.SkipDirs)
	}
	if cfg.Weights.CodeQuality != 0.5 || cfg.Weights.Testing != 0.0 {
		t.Errorf("weights = %+v", cfg.Weights)
	}
	// Unset keys keep their defaults.
	if cfg.MaxProjectsPerScan != DefaultMaxProjectsPerScan {
		t.Errorf("max_projects_per_scan = %d, want default %d", cfg.MaxProjectsPerScan, DefaultMaxProjectsPerScan)
	}
}

func TestLoad_ExpandsTildeInProjectsDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("projects_dir:\n  - ~/code\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	want := filepath.Join(home, "code")
	if cfg.ProjectsDir[0] != want {
		t.Errorf("projects_dir[0] = %q, want %q", cfg.ProjectsDir[0], want)
	}
}

func TestLoad_MalformedYAMLIsAnError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("projects_dir: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		ProjectsDir:        []string{t.TempDir()},
		MaxDepth:           3,
		MaxProjectsPerScan: 100,
		Weights:            health.DefaultWeights,
	}
}

func TestValidate_AcceptsSaneConfig(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*testing.T, *Config)
		wantSub string
	}{
		{
			"empty projects_dir",
			func(t *testing.T, c *Config) { c.ProjectsDir = nil },
			"projects_dir is empty",
		},
		{
			"missing projects_dir",
			func(t *testing.T, c *Config) { c.ProjectsDir = []string{filepath.Join(t.TempDir(), "gone")} },
			"projects_dir",
		},
		{
			"projects_dir is a file",
			func(t *testing.T, c *Config) {
				f := filepath.Join(t.TempDir(), "file")
				if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
				c.ProjectsDir = []string{f}
			},
			"not a directory",
		},
		{
			"zero max_depth",
			func(t *testing.T, c *Config) { c.MaxDepth = 0 },
			"max_depth",
		},
		{
			"zero max_projects_per_scan",
			func(t *testing.T, c *Config) { c.MaxProjectsPerScan = 0 },
			"max_projects_per_scan",
		},
		{
			"weights do not sum to one",
			func(t *testing.T, c *Config) { c.Weights = health.Weights{CodeQuality: 0.9} },
			"sum to 1.0",
		},
	}

	for _, tc := range tests {
		cfg := validConfig(t)
		tc.mutate(t, cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.wantSub)
		}
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	tests := []struct {
		input string
		want  string
	}{
		{"~/projects", filepath.Join(home, "projects")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tc := range tests {
		if got := expandPath(tc.input); got != tc.want {
			t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCachePath_UnderConfigDir(t *testing.T) {
	if !strings.HasSuffix(CachePath(), DefaultCacheName) {
		t.Errorf("cache path %q should end in %q", CachePath(), DefaultCacheName)
	}
	if !strings.HasPrefix(CachePath(), ConfigDir()) {
		t.Errorf("cache path %q should live under %q", CachePath(), ConfigDir())
	}
}
