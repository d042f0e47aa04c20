package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFreeCmd())
}

func newFreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "free <store> <handle>",
		Short: "Return every page of a chain to the free list",
		Long: `The free command releases a chain. Its pages are put at the head of
the free list and its handle becomes invalid.

Example:
  pagectl free data.store 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFree(args)
		},
	}
	return cmd
}

func runFree(args []string) error {
	h, err := parseHandle(args[1])
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(args[0], false)
	if err != nil {
		return err
	}
	err = s.Free(h)
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to free chain %d: %w", h, err)
	}

	printVerbose("Freed chain %d\n", h)
	if jsonOut {
		return printJSON(map[string]any{"handle": h, "freed": true})
	}
	return nil
}
