package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for anteater.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anteater",
		Short: "Polite breadth-first crawler for university web sites",
		Long: `anteater crawls a set of university domains breadth-first, honoring
robots.txt and per-host crawl delays, and reports what it found:
the most frequent words, the longest page, pages per subdomain and how
many pages were near-duplicates of pages already seen.

Finished crawl reports are kept in a local SQLite history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .anteater in current directory, XDG config or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewWordsCmd())
	cmd.AddCommand(NewCommonCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
