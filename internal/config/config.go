package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/projlens/projlens/internal/health"
)

// Config is the top-level projlens configuration.
type Config struct {
	ProjectsDir          []string       `mapstructure:"projects_dir"`
	CacheEnabled         bool           `mapstructure:"cache_enabled"`
	BackgroundProcessing bool           `mapstructure:"background_processing"`
	LazyLoading          bool           `mapstructure:"lazy_loading"`
	MaxProjectsPerScan   int            `mapstructure:"max_projects_per_scan"`
	MaxDepth             int            `mapstructure:"max_depth"`
	Weights              health.Weights `mapstructure:"weights"`
	SkipDirs             []string       `mapstructure:"skip_dirs"`
	Output               Output         `mapstructure:"output"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("projects_dir", DefaultProjectsDir)
	v.SetDefault("cache_enabled", DefaultCacheEnabled)
	v.SetDefault("background_processing", DefaultBackgroundProcessing)
	v.SetDefault("lazy_loading", DefaultLazyLoading)
	v.SetDefault("max_projects_per_scan", DefaultMaxProjectsPerScan)
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("weights.code_quality", health.DefaultWeights.CodeQuality)
	v.SetDefault("weights.documentation", health.DefaultWeights.Documentation)
	v.SetDefault("weights.testing", health.DefaultWeights.Testing)
	v.SetDefault("weights.dependencies", health.DefaultWeights.Dependencies)
	v.SetDefault("weights.security", health.DefaultWeights.Security)
	v.SetDefault("weights.performance", health.DefaultWeights.Performance)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand paths.
	for i, p := range cfg.ProjectsDir {
		cfg.ProjectsDir[i] = expandPath(p)
	}

	return &cfg, nil
}

// Validate rejects configurations no scan could meaningfully run with.
// This is the only hard failure in the engine: everything downstream
// degrades instead of erroring.
func (c *Config) Validate() error {
	if len(c.ProjectsDir) == 0 {
		return fmt.Errorf("config: projects_dir is empty")
	}
	for _, dir := range c.ProjectsDir {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("config: projects_dir %q: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: projects_dir %q is not a directory", dir)
		}
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("config: max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxProjectsPerScan < 1 {
		return fmt.Errorf("config: max_projects_per_scan must be at least 1, got %d", c.MaxProjectsPerScan)
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("config: health weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// CachePath returns the full path to the SQLite cache database.
func CachePath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultCacheName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
