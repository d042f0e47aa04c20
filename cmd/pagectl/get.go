package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	getOffset uint32
	getCount  uint32
	getHex    bool
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().Uint32Var(&getOffset, "offset", 0, "Start reading at this byte offset")
	cmd.Flags().Uint32Var(&getCount, "count", 0, "Read at most this many bytes (0 reads to the end)")
	cmd.Flags().BoolVar(&getHex, "hex", false, "Print a hex dump instead of raw bytes")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <store> <handle>",
		Short: "Read data from a chain",
		Long: `The get command writes the content of a chain to standard output.

Example:
  pagectl get data.store 1 > report.pdf
  pagectl get data.store 1 --offset 4000 --count 200 --hex
  pagectl get data.store 1 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
	return cmd
}

func runGet(args []string) error {
	h, err := parseHandle(args[1])
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(args[0], true)
	if err != nil {
		return err
	}
	defer closeStore()

	var data []byte
	if getOffset == 0 && getCount == 0 {
		data, err = s.ReadAll(h)
	} else {
		count := getCount
		if count == 0 {
			count = ^uint32(0)
		}
		data, err = s.ReadAt(h, getOffset, count)
	}
	if err != nil {
		return fmt.Errorf("failed to read chain %d: %w", h, err)
	}

	// Handle JSON output
	if jsonOut {
		return printJSON(map[string]any{
			"handle": h,
			"offset": getOffset,
			"length": len(data),
			"data":   data,
		})
	}
	if getHex {
		printInfo("%s", hex.Dump(data))
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}
