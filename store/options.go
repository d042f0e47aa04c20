package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshuapare/pagestore/store/dirty"
	"github.com/joshuapare/pagestore/store/lock"
)

// Options configures a Store.
type Options struct {
	// VerifyOnRead checks the footer of every page a read visits and fails
	// with a checksum error on mismatch.
	// Default: false
	VerifyOnRead bool

	// FlushAtWrite syncs the file after every mutating call.
	// Default: false
	FlushAtWrite bool

	// UseEncryption encrypts every page written with a key derived from
	// Password. Reading encrypted pages also needs it.
	// Default: false
	UseEncryption bool

	// Password is the raw key material. Open zeroes it after deriving the
	// key. Use crypt.EncodePassword to turn text into bytes.
	Password []byte

	// ReadOnly opens an existing store without write access.
	// Default: false
	ReadOnly bool

	// FlushMode selects the durability of Sync, FlushAtWrite and Close.
	// Default: dirty.FlushAuto
	FlushMode dirty.FlushMode

	// Logger receives store events. A "session" field is added per store.
	// Default: zap.NewNop()
	Logger *zap.Logger

	// Registerer, when set, receives the store's Prometheus collectors.
	// They are unregistered on Close.
	// Default: nil (metrics are collected but not exported)
	Registerer prometheus.Registerer

	// LockIdleTimeout is how long an unused page lock stays registered.
	// Default: 10s
	LockIdleTimeout time.Duration

	// LockSweepSchedule is the cron schedule of the idle lock sweep.
	// Default: "@every 1s"
	LockSweepSchedule string
}

// DefaultOptions returns the options used when Open is given nil.
func DefaultOptions() *Options {
	return &Options{
		FlushMode:         dirty.FlushAuto,
		Logger:            zap.NewNop(),
		LockIdleTimeout:   lock.DefaultIdleTimeout,
		LockSweepSchedule: lock.DefaultSweepSchedule,
	}
}

// withDefaults returns a copy of o with zero fields filled in.
func (o *Options) withDefaults() Options {
	if o == nil {
		return *DefaultOptions()
	}
	out := *o
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.LockIdleTimeout <= 0 {
		out.LockIdleTimeout = lock.DefaultIdleTimeout
	}
	if out.LockSweepSchedule == "" {
		out.LockSweepSchedule = lock.DefaultSweepSchedule
	}
	return out
}
