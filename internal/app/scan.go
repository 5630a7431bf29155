package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/projlens/projlens/internal/cache"
	"github.com/projlens/projlens/internal/config"
	"github.com/projlens/projlens/internal/health"
	"github.com/projlens/projlens/internal/listing"
	"github.com/projlens/projlens/internal/output"
	"github.com/projlens/projlens/internal/runner"
	"github.com/projlens/projlens/internal/scanner"
)

var (
	scanFlagPaths       []string
	scanFlagMaxDepth    int
	scanFlagMaxProjects int
	scanFlagNoCache     bool
	scanFlagLazy        bool
	scanFlagJSON        bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the configured roots and score every project",
	Long: `Scan walks each configured projects directory, detects project roots
from their manifests and file signatures, scores each project's health,
and prints the resulting tree. Projects whose on-disk fingerprint is
unchanged since the last run are served from the cache.

The scan runs on a background worker; Ctrl-C stops it cleanly after the
current project and still prints the partial result.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlagPaths, "path", nil, "Additional roots to scan (can be repeated)")
	scanCmd.Flags().IntVar(&scanFlagMaxDepth, "max-depth", 0, "Override traversal depth limit")
	scanCmd.Flags().IntVar(&scanFlagMaxProjects, "max-projects", 0, "Override project count limit")
	scanCmd.Flags().BoolVar(&scanFlagNoCache, "no-cache", false, "Analyze everything fresh, ignoring the cache")
	scanCmd.Flags().BoolVar(&scanFlagLazy, "lazy", false, "Skip health scoring on this pass")
	scanCmd.Flags().BoolVar(&scanFlagJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(scanFlagPaths) > 0 {
		cfg.ProjectsDir = append(cfg.ProjectsDir, scanFlagPaths...)
	}
	if scanFlagMaxDepth > 0 {
		cfg.MaxDepth = scanFlagMaxDepth
	}
	if scanFlagMaxProjects > 0 {
		cfg.MaxProjectsPerScan = scanFlagMaxProjects
	}
	if scanFlagNoCache {
		cfg.CacheEnabled = false
	}
	if scanFlagLazy {
		cfg.LazyLoading = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		db, derr := cache.Open(config.CachePath())
		if derr != nil {
			return fmt.Errorf("opening cache: %w", derr)
		}
		defer db.Close()
		store = cache.NewStore(db, scannerOptions(cfg))
	}

	s := scanner.New(store, cfg.Weights, cfg.MaxDepth, cfg.MaxProjectsPerScan)
	s.Opts = scannerOptions(cfg)
	s.LazyScoring = cfg.LazyLoading

	result, err := runWithProgress(s, cfg)
	if err != nil {
		return err
	}

	if scanFlagJSON || flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderForest(result)
	renderScanSummary(result)
	return nil
}

// runWithProgress executes the scan through the background runner so
// Ctrl-C can stop it cleanly; the partial result is still rendered.
func runWithProgress(s *scanner.Scanner, cfg *config.Config) (*scanner.Result, error) {
	progress := func(seen, estimate int) {
		fmt.Fprint(os.Stderr, output.ScanProgress(seen, estimate))
	}
	if !cfg.BackgroundProcessing {
		progress = nil
	}

	r := runner.New(s)
	handle, err := r.Start(runner.Request{Roots: cfg.ProjectsDir, Progress: progress})
	if err != nil {
		return nil, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nstopping after current project...")
			handle.Cancel()
		case <-handle.Done():
		}
	}()

	result, err := handle.Result()
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	return result, err
}

// scannerOptions merges configured skip_dirs into the default listing
// bounds. The cache store and the scanner must share these so fingerprints
// compare like for like.
func scannerOptions(cfg *config.Config) listing.Options {
	opts := listing.DefaultOptions()
	if len(cfg.SkipDirs) > 0 {
		merged := make(map[string]bool, len(opts.SkipDirs)+len(cfg.SkipDirs))
		for d := range opts.SkipDirs {
			merged[d] = true
		}
		for _, d := range cfg.SkipDirs {
			merged[d] = true
		}
		opts.SkipDirs = merged
	}
	return opts
}

func renderForest(result *scanner.Result) {
	fmt.Println(output.Section("Projects"))
	fmt.Println()

	tbl := output.NewTable("Health", "Project", "Kind", "Languages", "Size", "Files")
	var walk func(records []scanner.ProjectRecord, depth int)
	walk = func(records []scanner.ProjectRecord, depth int) {
		indent := strings.Repeat("  ", depth)
		for _, rec := range records {
			healthCell := output.StyleMuted.Render("---")
			if rec.Health != nil {
				healthCell = output.HealthBar(rec.Health.Overall, 10)
			}
			tbl.AddRow(
				healthCell,
				indent+rec.Name,
				string(rec.Kind),
				strings.Join(rec.Languages, ", "),
				humanize.Bytes(uint64(rec.SizeBytes)),
				fmt.Sprintf("%d", rec.FileCount),
			)
			walk(rec.Children, depth+1)
		}
	}
	walk(result.Projects, 0)
	tbl.Print()

	for _, rec := range result.Projects {
		printIssues(rec)
	}
}

func printIssues(rec scanner.ProjectRecord) {
	for _, msg := range rec.Issues {
		fmt.Printf(" %s %s: %s\n", output.Severity(health.SeverityWarning), rec.Name, msg)
	}
	if rec.Health != nil {
		for _, iss := range rec.Health.Issues {
			if iss.Severity == health.SeverityCritical {
				fmt.Printf(" %s %s: %s\n", output.Severity(iss.Severity), rec.Name, iss.Message)
			}
		}
	}
	for _, child := range rec.Children {
		printIssues(child)
	}
}

func renderScanSummary(result *scanner.Result) {
	fmt.Println(output.Section("Summary"))
	fmt.Println()

	total, sum := 0, 0
	var countScores func([]scanner.ProjectRecord)
	countScores = func(records []scanner.ProjectRecord) {
		for _, rec := range records {
			if rec.Health != nil {
				total++
				sum += rec.Health.Overall
			}
			countScores(rec.Children)
		}
	}
	countScores(result.Projects)

	mean := 0
	if total > 0 {
		mean = sum / total
	}

	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Projects scored:"),
		output.StyleValue.Render(fmt.Sprintf("%d", total)))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Mean health:"),
		output.StyleValue.Render(fmt.Sprintf("%d/100", mean)))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Cache:"),
		output.StyleValue.Render(fmt.Sprintf("%d hits, %d misses", result.Stats.CacheHits, result.Stats.CacheMisses)))
	if result.Partial {
		fmt.Printf(" %s\n", output.StyleWarning.Render("Result is partial (limit reached or scan cancelled)."))
	}
	fmt.Println()
}
