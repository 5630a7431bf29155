package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/projlens/projlens/internal/cache"
	"github.com/projlens/projlens/internal/config"
	"github.com/projlens/projlens/internal/output"
	"github.com/projlens/projlens/internal/scanner"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the projlens setup is healthy",
	Long: `Run a series of checks against your projlens configuration, the
configured projects directories, and the cache database. Prints a
pass/fail line for each check and a summary of how many passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var checks []doctorCheck

	// 1. Config validation.
	checks = append(checks, checkConfig(cfg))

	// 2. Projects directories — each configured root exists.
	checks = append(checks, checkRoots(cfg.ProjectsDir)...)

	// 3. Cache database — opens and reports its contents.
	checks = append(checks, checkCache(cfg))

	// 4. Weight vector sums to 1.0.
	checks = append(checks, checkWeights(cfg))

	// 5. README coverage across discovered projects.
	checks = append(checks, checkReadmeCoverage(cfg))

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

func checkConfig(cfg *config.Config) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{Name: "Configuration", Passed: false, Message: err.Error()}
	}
	return doctorCheck{Name: "Configuration", Passed: true, Message: "valid"}
}

// checkRoots verifies that each configured projects directory exists.
func checkRoots(roots []string) []doctorCheck {
	if len(roots) == 0 {
		return []doctorCheck{{
			Name:    "Projects directories",
			Passed:  false,
			Message: "no projects_dir configured",
		}}
	}

	var checks []doctorCheck
	for _, p := range roots {
		info, err := os.Stat(p)
		name := fmt.Sprintf("Root: %s", filepath.Base(p))
		switch {
		case err != nil:
			checks = append(checks, doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("not found: %s", p)})
		case !info.IsDir():
			checks = append(checks, doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("not a directory: %s", p)})
		default:
			checks = append(checks, doctorCheck{Name: name, Passed: true, Message: p})
		}
	}
	return checks
}

// checkCache opens the cache database and reports the entry count. A
// cache that had to fall back to in-memory still opens, so this check
// also distinguishes a usable on-disk store from the degraded mode.
func checkCache(cfg *config.Config) doctorCheck {
	if !cfg.CacheEnabled {
		return doctorCheck{Name: "Cache database", Passed: true, Message: "disabled by config"}
	}
	db, err := cache.Open(config.CachePath())
	if err != nil {
		return doctorCheck{Name: "Cache database", Passed: false, Message: err.Error()}
	}
	defer db.Close()

	store := cache.NewStore(db, scannerOptions(cfg))
	count, size, err := store.Info()
	if err != nil {
		return doctorCheck{Name: "Cache database", Passed: false, Message: err.Error()}
	}
	if size == 0 {
		return doctorCheck{
			Name:    "Cache database",
			Passed:  false,
			Message: "running in-memory; on-disk store could not be opened",
		}
	}
	return doctorCheck{
		Name:    "Cache database",
		Passed:  true,
		Message: fmt.Sprintf("%d entries at %s", count, config.CachePath()),
	}
}

func checkWeights(cfg *config.Config) doctorCheck {
	sum := cfg.Weights.Sum()
	if sum < 0.999 || sum > 1.001 {
		return doctorCheck{
			Name:    "Health weights",
			Passed:  false,
			Message: fmt.Sprintf("weights sum to %.3f, must be 1.0", sum),
		}
	}
	return doctorCheck{Name: "Health weights", Passed: true, Message: "sum to 1.0"}
}

// checkReadmeCoverage runs a lazy scan and counts projects carrying a
// README, the single strongest documentation signal.
func checkReadmeCoverage(cfg *config.Config) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{Name: "README coverage", Passed: false, Message: "skipped: invalid config"}
	}

	s := scanner.New(nil, cfg.Weights, cfg.MaxDepth, cfg.MaxProjectsPerScan)
	s.Opts = scannerOptions(cfg)
	s.LazyScoring = true

	result, err := s.Scan(context.Background(), cfg.ProjectsDir, nil)
	if err != nil {
		return doctorCheck{Name: "README coverage", Passed: false, Message: err.Error()}
	}
	total, withReadme := 0, 0
	var walk func([]scanner.ProjectRecord)
	walk = func(records []scanner.ProjectRecord) {
		for _, rec := range records {
			total++
			for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
				if _, err := os.Stat(filepath.Join(rec.Path, name)); err == nil {
					withReadme++
					break
				}
			}
			walk(rec.Children)
		}
	}
	walk(result.Projects)

	if total == 0 {
		return doctorCheck{Name: "README coverage", Passed: false, Message: "no projects found"}
	}
	pct := float64(withReadme) / float64(total) * 100
	return doctorCheck{
		Name:    "README coverage",
		Passed:  withReadme == total || pct >= 50,
		Message: fmt.Sprintf("%d/%d projects have a README (%.0f%%)", withReadme, total, pct),
	}
}
