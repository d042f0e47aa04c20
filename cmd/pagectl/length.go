package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLengthCmd())
}

func newLengthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "length <store> <handle>",
		Short: "Print the byte length of a chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLength(args)
		},
	}
	return cmd
}

func runLength(args []string) error {
	h, err := parseHandle(args[1])
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(args[0], true)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := s.Length(h)
	if err != nil {
		return fmt.Errorf("failed to read chain %d: %w", h, err)
	}
	if jsonOut {
		return printJSON(map[string]any{"handle": h, "length": n})
	}
	printInfo("%d\n", n)
	return nil
}
