package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/projlens/projlens/internal/cache"
	"github.com/projlens/projlens/internal/config"
	"github.com/projlens/projlens/internal/listing"
	"github.com/projlens/projlens/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached project count and database size",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		store := cache.NewStore(db, listing.DefaultOptions())
		count, size, err := store.Info()
		if err != nil {
			return fmt.Errorf("reading cache info: %w", err)
		}

		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("Cached projects:"),
			output.StyleValue.Render(fmt.Sprintf("%d", count)))
		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("Database size:"),
			output.StyleValue.Render(humanize.Bytes(uint64(size))))
		fmt.Printf(" %s %s\n",
			output.StyleLabel.Render("Location:"),
			output.StyleValue.Render(config.CachePath()))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Invalidate every cached entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		store := cache.NewStore(db, listing.DefaultOptions())
		if err := store.InvalidateAll(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
