package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <store>",
		Short: "Create an empty store",
		Long: `The create command writes a new store holding one chapter: the file
header and 4095 free pages. Existing non-empty files are left untouched.

Example:
  pagectl create data.store
  PAGESTORE_PASSWORD=secret pagectl create secret.store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args)
		},
	}
	return cmd
}

func runCreate(args []string) error {
	path := args[0]
	if st, err := os.Stat(path); err == nil && st.Size() > 0 {
		return fmt.Errorf("%s already exists", path)
	}

	s, closeStore, err := openStore(path, false)
	if err != nil {
		return err
	}
	stats, err := s.Stats()
	if err != nil {
		closeStore()
		return err
	}
	if err := closeStore(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(stats)
	}
	printInfo("Created %s (%d pages, %d free)\n", path, stats.Pages, stats.FreePages)
	return nil
}
