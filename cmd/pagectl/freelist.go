package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var freelistLimit int

func init() {
	cmd := newFreelistCmd()
	cmd.Flags().IntVar(&freelistLimit, "limit", 20, "Show at most this many pages (0 for all)")
	rootCmd.AddCommand(cmd)
}

func newFreelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freelist <store>",
		Short: "List the head of the free list",
		Long: `The freelist command prints free page indices in the order the next
allocations will take them.

Example:
  pagectl freelist data.store
  pagectl freelist data.store --limit 0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreelist(args)
		},
	}
	return cmd
}

func runFreelist(args []string) error {
	s, closeStore, err := openStore(args[0], true)
	if err != nil {
		return err
	}
	defer closeStore()

	pages, err := s.FreePages(freelistLimit)
	if err != nil {
		return fmt.Errorf("failed to walk free list: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]any{"pages": pages})
	}
	for _, ix := range pages {
		printInfo("%d\n", ix)
	}
	return nil
}
