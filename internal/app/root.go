// Package app contains the Cobra command tree for projlens.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projlens/projlens/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "projlens",
	Short: "Inventory and health-score a directory tree of software projects",
	Long: `projlens walks your projects directory, detects project roots and their
languages and frameworks, and computes a 0-100 health score per project
from documentation, testing, dependency, security, structure, and size
heuristics. Results are cached so unchanged projects are skipped on the
next run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			output.SetNoColor(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("projlens", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  scan      Walk the configured roots and score every project")
		fmt.Println("  projects  List cached projects with filters")
		fmt.Println("  cache     Inspect or clear the analysis cache")
		fmt.Println("  doctor    Check whether the projlens setup is healthy")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/projlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
}
