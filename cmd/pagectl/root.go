package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/pagestore/internal/config"
	"github.com/joshuapare/pagestore/internal/logger"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store"
	"github.com/joshuapare/pagestore/store/crypt"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "PAGESTORE_PASSWORD"

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	password   string
)

var rootCmd = &cobra.Command{
	Use:   "pagectl",
	Short: "Inspect and manipulate page store files",
	Long: `pagectl creates, inspects and edits page store files: single host
files split into 4096-byte pages, where each blob lives in a chain of pages
named by its handle.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().
		StringVar(&password, "password", "", "Encryption password (default $"+passwordEnv+")")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the store at path with the configured options. Stores
// opened for reading must already exist. The returned func closes the store
// and flushes the logger.
func openStore(path string, readOnly bool) (*store.Store, func() error, error) {
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("store %s does not exist", path)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case verbose:
		cfg.Logger.Level = "debug"
	case quiet:
		cfg.Logger.Level = "error"
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	pwd, err := resolvePassword()
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.ToOptions(pwd, log)
	if err != nil {
		return nil, nil, err
	}
	opts.ReadOnly = opts.ReadOnly || readOnly

	printVerbose("Opening store: %s\n", path)
	s, err := store.Open(path, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	closeFn := func() error {
		err := s.Close()
		_ = log.Sync()
		if errors.Is(err, types.ErrClosed) {
			return nil
		}
		return err
	}
	log.Debug("pagectl opened store", zap.String("path", path), zap.Bool("read_only", opts.ReadOnly))
	return s, closeFn, nil
}

func resolvePassword() ([]byte, error) {
	pwd := password
	if pwd == "" {
		pwd = os.Getenv(passwordEnv)
	}
	if pwd == "" {
		return nil, nil
	}
	return crypt.EncodePassword(pwd)
}

func parseHandle(s string) (types.Handle, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return types.InvalidHandle, fmt.Errorf("invalid handle %q: %w", s, err)
	}
	return types.Handle(v), nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatSize renders a byte count the way info prints file sizes.
func formatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
