package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var putAt int64

func init() {
	cmd := newPutCmd()
	cmd.Flags().Int64Var(&putAt, "at", -1, "Overwrite at this offset instead of replacing the chain")
	rootCmd.AddCommand(cmd)
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <store> <handle> [file]",
		Short: "Write data into a chain",
		Long: `The put command replaces the content of a chain with the bytes of
file, or of standard input when no file is given. With --at the bytes are
written at that offset and the chain is only ever extended.

Example:
  pagectl put data.store 1 report.pdf
  echo hello | pagectl put data.store 1
  echo patch | pagectl put data.store 1 --at 4096`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd.InOrStdin(), args)
		},
	}
	return cmd
}

func runPut(stdin io.Reader, args []string) error {
	h, err := parseHandle(args[1])
	if err != nil {
		return err
	}

	var data []byte
	if len(args) == 3 {
		data, err = os.ReadFile(args[2])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	s, closeStore, err := openStore(args[0], false)
	if err != nil {
		return err
	}

	if putAt >= 0 {
		if putAt > int64(^uint32(0)) {
			closeStore()
			return fmt.Errorf("offset %d out of range", putAt)
		}
		err = s.WriteAt(h, uint32(putAt), data)
	} else {
		err = s.Write(h, data)
	}
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write chain %d: %w", h, err)
	}

	printVerbose("Wrote %d bytes to chain %d\n", len(data), h)
	if jsonOut {
		return printJSON(map[string]any{"handle": h, "written": len(data)})
	}
	return nil
}
