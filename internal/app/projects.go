package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/projlens/projlens/internal/cache"
	"github.com/projlens/projlens/internal/classifier"
	"github.com/projlens/projlens/internal/config"
	"github.com/projlens/projlens/internal/output"
	"github.com/projlens/projlens/internal/scanner"
)

var (
	projectsFlagKind      string
	projectsFlagStatus    string
	projectsFlagMinHealth int
	projectsFlagJSON      bool
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List scanned projects as a flat, filterable table",
	Long: `Projects runs a scan over the configured roots and prints every
discovered project in a single flat list, sorted by health score.
Nested projects appear as their own rows.`,
	RunE: runProjects,
}

func init() {
	projectsCmd.Flags().StringVar(&projectsFlagKind, "kind", "", "Only show projects of this kind (web, backend, mobile, ...)")
	projectsCmd.Flags().StringVar(&projectsFlagStatus, "status", "", "Only show projects with this activity status (active, recent, inactive, stale)")
	projectsCmd.Flags().IntVar(&projectsFlagMinHealth, "min-health", 0, "Only show projects at or above this health score")
	projectsCmd.Flags().BoolVar(&projectsFlagJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
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

	result, err := runWithProgress(s, cfg)
	if err != nil {
		return err
	}

	records := flatten(result.Projects)
	records = filterRecords(records, projectsFlagKind, projectsFlagStatus, projectsFlagMinHealth)
	sort.SliceStable(records, func(i, j int) bool {
		return healthOf(records[i]) > healthOf(records[j])
	})

	if projectsFlagJSON || flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Println(output.Section("Projects"))
	fmt.Println()

	tbl := output.NewTable("Health", "Project", "Kind", "Status", "Languages", "Size")
	for _, rec := range records {
		healthCell := output.StyleMuted.Render("---")
		if rec.Health != nil {
			healthCell = output.HealthBar(rec.Health.Overall, 10)
		}
		tbl.AddRow(
			healthCell,
			rec.Name,
			string(rec.Kind),
			statusOf(rec),
			strings.Join(rec.Languages, ", "),
			humanize.Bytes(uint64(rec.SizeBytes)),
		)
	}
	tbl.Print()

	if len(records) == 0 {
		fmt.Println(output.StyleMuted.Render(" no projects matched"))
	}
	fmt.Println()
	return nil
}

// flatten lifts nested project records into one list. Children keep
// their own rows; the parent's Children slice is cleared so JSON output
// does not repeat them.
func flatten(records []scanner.ProjectRecord) []scanner.ProjectRecord {
	var flat []scanner.ProjectRecord
	var walk func([]scanner.ProjectRecord)
	walk = func(recs []scanner.ProjectRecord) {
		for _, rec := range recs {
			children := rec.Children
			rec.Children = nil
			flat = append(flat, rec)
			walk(children)
		}
	}
	walk(records)
	return flat
}

func filterRecords(records []scanner.ProjectRecord, kind, status string, minHealth int) []scanner.ProjectRecord {
	if kind == "" && status == "" && minHealth <= 0 {
		return records
	}
	var kept []scanner.ProjectRecord
	for _, rec := range records {
		if kind != "" && rec.Kind != classifier.Kind(kind) {
			continue
		}
		if status != "" && statusOf(rec) != status {
			continue
		}
		if minHealth > 0 && healthOf(rec) < minHealth {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// statusOf buckets a project by how recently anything in it changed.
func statusOf(rec scanner.ProjectRecord) string {
	if rec.ModifiedAt.IsZero() {
		return "unknown"
	}
	age := time.Since(rec.ModifiedAt)
	switch {
	case age <= 7*24*time.Hour:
		return "active"
	case age <= 30*24*time.Hour:
		return "recent"
	case age <= 180*24*time.Hour:
		return "inactive"
	default:
		return "stale"
	}
}

func healthOf(rec scanner.ProjectRecord) int {
	if rec.Health == nil {
		return -1
	}
	return rec.Health.Overall
}
