// Package store is the public face of a page store: a single host file
// split into 4096-byte pages, where each blob lives in a chain of pages
// named by the index of its first page (its handle).
//
// # Usage
//
//	s, err := store.Open("data.store", nil)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	h, _ := s.Allocate()
//	_ = s.Write(h, payload)
//	data, _ := s.ReadAll(h)
//
// All methods are safe for concurrent use. Writers of one chain are
// serialized by the write lock of its head page; readers of a chain share
// the head's read lock.
package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/metrics"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/alloc"
	"github.com/joshuapare/pagestore/store/crypt"
	"github.com/joshuapare/pagestore/store/lock"
	"github.com/joshuapare/pagestore/store/pagefile"
	"github.com/joshuapare/pagestore/store/verify"
)

// Store is an open page store.
type Store struct {
	pf      *pagefile.File
	alloc   *alloc.Allocator
	locks   *lock.Registry
	sweeper *lock.Sweeper
	codec   *crypt.Codec

	opts     Options
	capacity uint32
	session  string
	log      *zap.Logger
	metrics  *metrics.Collector
	reg      prometheus.Registerer

	closed atomic.Bool
}

// Open opens the store at path, creating it when the file is absent or
// empty. A nil opts selects DefaultOptions.
func Open(path string, opts *Options) (*Store, error) {
	o := opts.withDefaults()

	s := &Store{
		opts:     o,
		capacity: format.PayloadSize,
		session:  uuid.NewString(),
		reg:      o.Registerer,
	}
	s.log = o.Logger.With(zap.String("session", s.session))

	if o.UseEncryption {
		codec, err := crypt.New(o.Password)
		if err != nil {
			return nil, err
		}
		s.codec = codec
		s.capacity = format.EncryptedPayloadSize
	}
	s.opts.Password = nil

	s.locks = lock.NewRegistry(o.LockIdleTimeout)
	s.metrics = metrics.New(prometheus.Labels{"session": s.session}, func() float64 {
		return float64(s.locks.Len())
	})

	pf, err := pagefile.Open(path, pagefile.Options{
		Logger:    s.log,
		Metrics:   s.metrics,
		ReadOnly:  o.ReadOnly,
		FlushMode: o.FlushMode,
	})
	if err != nil {
		return nil, err
	}
	s.pf = pf
	s.alloc = alloc.New(pf, alloc.Options{
		Locks:    s.locks,
		Capacity: s.capacity,
		Logger:   s.log,
		Metrics:  s.metrics,
	})

	if err := s.metrics.Register(s.reg); err != nil {
		pf.Close()
		return nil, fmt.Errorf("store: register metrics: %w", err)
	}

	s.sweeper, err = lock.NewSweeper(s.locks, o.LockSweepSchedule, s.log)
	if err != nil {
		s.metrics.Unregister(s.reg)
		pf.Close()
		return nil, err
	}
	s.sweeper.Start()

	s.log.Debug("store ready",
		zap.Bool("encrypted", s.codec != nil),
		zap.Bool("verify_on_read", o.VerifyOnRead),
		zap.Uint32("chapters", pf.ChapterCount()))
	return s, nil
}

// Close stops background work, persists the header, syncs and closes the
// file. Calls after the first return ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return types.ErrClosed
	}
	s.sweeper.Stop()
	s.metrics.Unregister(s.reg)
	return s.pf.Close()
}

// Session returns the identifier attached to this store's logs and metrics.
func (s *Store) Session() string { return s.session }

// Encrypted reports whether the store writes encrypted pages.
func (s *Store) Encrypted() bool { return s.codec != nil }

// PageCount returns the number of pages in the file, header included.
func (s *Store) PageCount() uint64 { return s.pf.PageCount() }

// Metrics returns the store's collectors.
func (s *Store) Metrics() *metrics.Collector { return s.metrics }

func (s *Store) usable() error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

// afterWrite syncs when FlushAtWrite is set.
func (s *Store) afterWrite() error {
	if !s.opts.FlushAtWrite {
		return nil
	}
	return s.pf.Flush(context.Background())
}

// Allocate returns a new, empty chain of one page.
func (s *Store) Allocate() (types.Handle, error) {
	if err := s.usable(); err != nil {
		return types.InvalidHandle, err
	}
	ix, err := s.alloc.Allocate()
	if err != nil {
		return types.InvalidHandle, fmt.Errorf("store: allocate: %w", err)
	}
	return types.Handle(ix), s.afterWrite()
}

// AllocateSize returns a new chain with enough pages for size bytes. Its
// length is zero until written.
func (s *Store) AllocateSize(size uint32) (types.Handle, error) {
	if err := s.usable(); err != nil {
		return types.InvalidHandle, err
	}
	ix, err := s.alloc.AllocateSize(size)
	if err != nil {
		return types.InvalidHandle, fmt.Errorf("store: allocate %d bytes: %w", size, err)
	}
	return types.Handle(ix), s.afterWrite()
}

// Free returns every page of h's chain to the free list. Freeing page 0,
// an index past the end of the file or an already free page fails with an
// invalid-handle error.
func (s *Store) Free(h types.Handle) error {
	if err := s.usable(); err != nil {
		return err
	}
	if _, err := s.alloc.Free(uint32(h)); err != nil {
		return fmt.Errorf("store: free %d: %w", h, err)
	}
	return s.afterWrite()
}

// Sync writes back dirty pages and syncs the file.
func (s *Store) Sync(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	return s.pf.Flush(ctx)
}

// ValidateAll recomputes the checksum of every page and reports whether
// all of them match.
func (s *Store) ValidateAll(ctx context.Context) bool {
	return s.Validate(ctx) == nil
}

// Validate recomputes the checksum of every page, then checks the free
// list, and returns the first problem found.
func (s *Store) Validate(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := verify.Pages(ctx, s.pf, s.locks); err != nil {
		s.log.Warn("validation failed", zap.Error(err))
		return err
	}
	return s.alloc.Exclusive(func() error {
		_, err := verify.FreeList(s.pf)
		if err != nil {
			s.log.Warn("free list validation failed", zap.Error(err))
		}
		return err
	})
}

// Stats summarizes the store.
type Stats struct {
	Path      string `json:"path"`
	Session   string `json:"session"`
	Version   uint16 `json:"version"`
	Chapters  uint32 `json:"chapters"`
	Pages     uint64 `json:"pages"`
	FreePages uint64 `json:"free_pages"`
	FirstFree uint32 `json:"first_free"`
	Encrypted bool   `json:"encrypted"`
	PageLocks int    `json:"page_locks"`
}

// Stats walks the free list and reports file geometry and usage.
func (s *Store) Stats() (Stats, error) {
	if err := s.usable(); err != nil {
		return Stats{}, err
	}
	free, err := s.alloc.FreeCount()
	if err != nil {
		return Stats{}, fmt.Errorf("store: stats: %w", err)
	}
	hdr := s.pf.Header()
	return Stats{
		Path:      s.pf.Path(),
		Session:   s.session,
		Version:   hdr.Version,
		Chapters:  s.pf.ChapterCount(),
		Pages:     s.pf.PageCount(),
		FreePages: free,
		FirstFree: hdr.FirstFree,
		Encrypted: s.codec != nil,
		PageLocks: s.locks.Len(),
	}, nil
}
