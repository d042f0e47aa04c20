package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagestore/pkg/types"
)

var allocSize uint32

func init() {
	cmd := newAllocCmd()
	cmd.Flags().Uint32Var(&allocSize, "size", 0, "Reserve enough pages for this many bytes")
	rootCmd.AddCommand(cmd)
}

func newAllocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc <store>",
		Short: "Allocate a new chain and print its handle",
		Long: `The alloc command takes pages from the free list to start a new,
empty chain and prints its handle. The store grows by a chapter when the
free list runs out.

Example:
  pagectl alloc data.store
  pagectl alloc data.store --size 100000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(args)
		},
	}
	return cmd
}

func runAlloc(args []string) error {
	s, closeStore, err := openStore(args[0], false)
	if err != nil {
		return err
	}

	var h types.Handle
	if allocSize > 0 {
		h, err = s.AllocateSize(allocSize)
	} else {
		h, err = s.Allocate()
	}
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to allocate: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]any{"handle": h})
	}
	printInfo("%d\n", h)
	return nil
}
