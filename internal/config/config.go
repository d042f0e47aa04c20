// Package config loads the optional YAML file read by pagectl and maps it
// onto store.Options.
//
// Example file:
//
//	logger:
//	  level: debug
//	  format: console
//	store:
//	  verify_on_read: true
//	  flush_mode: full
//	  lock_idle_timeout: 30s
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/pagestore/internal/logger"
	"github.com/joshuapare/pagestore/store"
	"github.com/joshuapare/pagestore/store/dirty"
	"github.com/joshuapare/pagestore/store/lock"
)

// Config is the on-disk configuration.
type Config struct {
	Logger logger.Config `yaml:"logger"`
	Store  StoreConfig   `yaml:"store"`
}

// StoreConfig mirrors the serializable subset of store.Options. Passwords
// are never read from the file.
type StoreConfig struct {
	VerifyOnRead      bool          `yaml:"verify_on_read"`
	FlushAtWrite      bool          `yaml:"flush_at_write"`
	UseEncryption     bool          `yaml:"use_encryption"`
	ReadOnly          bool          `yaml:"read_only"`
	FlushMode         string        `yaml:"flush_mode"`
	LockIdleTimeout   time.Duration `yaml:"lock_idle_timeout"`
	LockSweepSchedule string        `yaml:"lock_sweep_schedule"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logger: logger.Config{Level: "warn", Format: "console", OutputFile: "stderr"},
		Store: StoreConfig{
			FlushMode:         "auto",
			LockIdleTimeout:   lock.DefaultIdleTimeout,
			LockSweepSchedule: lock.DefaultSweepSchedule,
		},
	}
}

// Load reads path over the defaults. An empty path returns Default; a
// missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s does not exist", path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if _, err := ParseFlushMode(cfg.Store.FlushMode); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseFlushMode maps "auto", "data" and "full" to a dirty.FlushMode. The
// empty string means auto.
func ParseFlushMode(s string) (dirty.FlushMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return dirty.FlushAuto, nil
	case "data", "data-only":
		return dirty.FlushDataOnly, nil
	case "full":
		return dirty.FlushFull, nil
	default:
		return dirty.FlushAuto, fmt.Errorf("unknown flush mode %q (must be auto, data or full)", s)
	}
}

// ToOptions builds store options from the configuration. password may be
// nil; log is attached as the store logger.
func (c *Config) ToOptions(password []byte, log *zap.Logger) (*store.Options, error) {
	mode, err := ParseFlushMode(c.Store.FlushMode)
	if err != nil {
		return nil, err
	}
	opts := store.DefaultOptions()
	opts.VerifyOnRead = c.Store.VerifyOnRead
	opts.FlushAtWrite = c.Store.FlushAtWrite
	opts.UseEncryption = c.Store.UseEncryption || len(password) > 0
	opts.Password = password
	opts.ReadOnly = c.Store.ReadOnly
	opts.FlushMode = mode
	if c.Store.LockIdleTimeout > 0 {
		opts.LockIdleTimeout = c.Store.LockIdleTimeout
	}
	if c.Store.LockSweepSchedule != "" {
		opts.LockSweepSchedule = c.Store.LockSweepSchedule
	}
	if log != nil {
		opts.Logger = log
	}
	return opts, nil
}
