package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagestore/store"
)

var validateDeep bool

func init() {
	cmd := newValidateCmd()
	cmd.Flags().BoolVar(&validateDeep, "deep", false, "Check every page and report all bad checksums")
	rootCmd.AddCommand(cmd)
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <store>",
		Short: "Verify page checksums and the free list",
		Long: `The validate command recomputes the checksum of every page and walks
the free list, stopping at the first problem.

With --deep every page is inspected and all pages with a bad checksum are
listed.

Example:
  pagectl validate data.store
  pagectl validate data.store --deep
  pagectl validate data.store --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args)
		},
	}
	return cmd
}

func runValidate(ctx context.Context, args []string) error {
	path := args[0]
	if ctx == nil {
		ctx = context.Background()
	}

	printVerbose("Validating store: %s\n", path)

	s, closeStore, err := openStore(path, true)
	if err != nil {
		return err
	}
	defer closeStore()

	err = s.Validate(ctx)

	var bad []uint32
	if validateDeep {
		if bad, err = badPages(s, err); err == nil && len(bad) > 0 {
			err = fmt.Errorf("%d page(s) with a bad checksum", len(bad))
		}
	}

	// Prepare result
	result := map[string]any{
		"file":  path,
		"deep":  validateDeep,
		"valid": err == nil,
	}
	if validateDeep {
		result["bad_pages"] = bad
	}
	if err != nil {
		result["error"] = err.Error()
	}

	// Output as JSON if requested
	if jsonOut {
		if perr := printJSON(result); perr != nil {
			return perr
		}
		return err
	}

	printInfo("\nValidating %s...\n\n", path)
	if validateDeep {
		for _, ix := range bad {
			printInfo("  ✗ page %d checksum mismatch\n", ix)
		}
	}
	if err != nil {
		printInfo("  ✗ Validation failed: %v\n", err)
		printInfo("\nResult: ✗ INVALID\n")
		return err
	}
	printInfo("  ✓ All checksums valid\n")
	printInfo("  ✓ Free list consistent\n")
	printInfo("\nResult: ✓ VALID\n")
	return nil
}

// badPages inspects every page and returns those whose footer does not
// match. A free list error from prior is kept when no page is bad.
func badPages(s *store.Store, prior error) ([]uint32, error) {
	var bad []uint32
	for ix := uint64(0); ix < s.PageCount(); ix++ {
		info, err := s.Inspect(uint32(ix))
		if err != nil {
			return bad, err
		}
		if !info.Valid {
			bad = append(bad, info.Index)
		}
	}
	if len(bad) == 0 {
		return nil, prior
	}
	return bad, nil
}
