package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <store>",
		Short: "Report store geometry and usage",
		Long: `The info command opens a store read-only and displays its format
version, chapter and page counts, and the length of the free list.

Example:
  pagectl info data.store
  pagectl info data.store --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

func runInfo(args []string) error {
	path := args[0]

	s, closeStore, err := openStore(path, true)
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := s.Stats()
	if err != nil {
		return fmt.Errorf("failed to get store info: %w", err)
	}

	// Output as JSON if requested
	if jsonOut {
		return printJSON(stats)
	}

	printInfo("\nStore Information:\n")
	printInfo("  File: %s\n", path)
	if st, err := os.Stat(path); err == nil {
		printInfo("  Size: %s\n", formatSize(st.Size()))
	}
	printInfo("  Version: %d\n", stats.Version)
	printInfo("  Chapters: %d\n", stats.Chapters)
	printInfo("  Pages: %d\n", stats.Pages)
	printInfo("  Free pages: %d\n", stats.FreePages)
	printInfo("  Used pages: %d\n", stats.Pages-stats.FreePages-1)
	printInfo("  First free: %d\n", stats.FirstFree)
	printVerbose("  Session: %s\n", stats.Session)

	return nil
}
