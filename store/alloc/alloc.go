// Package alloc hands out and reclaims page chains.
//
// Free pages form a singly linked list threaded through their link fields
// and rooted at the file header. Allocation pops the head of that list and
// grows the file by one chapter when the popped page was the last one.
// Freeing prepends a whole chain to the list, keeping its order.
//
// # Locking
//
// A coarse mutex guards the header and the free-list head. It is always the
// innermost lock: while it is held only free pages are locked (the page
// being popped, the tail of a chain being freed). Allocated pages are
// locked, and their state checked, before the mutex is taken.
package alloc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/metrics"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/lock"
	"github.com/joshuapare/pagestore/store/pagefile"
)

// PageLocker takes exclusive page locks.
type PageLocker interface {
	Lock(ix uint32) lock.Unlock
}

type noLocks struct{}

func (noLocks) Lock(uint32) lock.Unlock { return func() {} }

// Options configures an Allocator.
type Options struct {
	// Locks serializes page rewrites against readers. Nil disables page
	// locking, which is only safe for single-goroutine use.
	Locks PageLocker
	// Capacity is the payload bytes one page holds, used by AllocateSize.
	// Zero selects format.PayloadSize.
	Capacity uint32
	Logger   *zap.Logger
	Metrics  *metrics.Collector
}

// Allocator manages the free list of one page file.
type Allocator struct {
	mu       sync.Mutex
	pf       *pagefile.File
	locks    PageLocker
	capacity uint32
	log      *zap.Logger
	metrics  *metrics.Collector
}

// New returns an allocator for pf.
func New(pf *pagefile.File, opts Options) *Allocator {
	a := &Allocator{
		pf:       pf,
		locks:    opts.Locks,
		capacity: opts.Capacity,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
	if a.locks == nil {
		a.locks = noLocks{}
	}
	if a.capacity == 0 {
		a.capacity = format.PayloadSize
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Capacity returns the per-page payload capacity used by AllocateSize.
func (a *Allocator) Capacity() uint32 { return a.capacity }

// Allocate pops one page off the free list and returns it as an empty,
// unlinked chain.
func (a *Allocator) Allocate() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ix := a.pf.FirstFree()
	unlock := a.locks.Lock(ix)
	defer unlock()

	page, err := a.pf.ReadPage(ix)
	if err != nil {
		return 0, fmt.Errorf("alloc: read free page %d: %w", ix, err)
	}
	if !page.IsFree() {
		return 0, types.Errorf(types.ErrKindCorrupt, "%w: page %d (%s)", ErrNotFreeHead, ix, page)
	}

	next := page.Link()
	if next == format.NoLink {
		if next, err = a.pf.AddChapter(); err != nil {
			return 0, fmt.Errorf("alloc: grow: %w", err)
		}
	}

	// Header first: a failure after this leaks the page instead of handing
	// it out twice.
	if err := a.pf.SetFirstFree(next); err != nil {
		return 0, fmt.Errorf("alloc: update header: %w", err)
	}
	page.Reset(0, format.NoLink)
	if err := a.pf.WritePage(ix, page); err != nil {
		return 0, fmt.Errorf("alloc: write page %d: %w", ix, err)
	}

	a.metrics.Allocated()
	return ix, nil
}

// AllocateSize allocates a chain long enough to hold size payload bytes.
// The pages are linked but their lengths are left zero. On failure any
// pages already taken are returned to the free list.
func (a *Allocator) AllocateSize(size uint32) (uint32, error) {
	head, err := a.Allocate()
	if err != nil {
		return 0, err
	}

	prev := head
	for remaining := size; remaining > a.capacity; remaining -= a.capacity {
		next, err := a.Allocate()
		if err == nil {
			err = a.link(prev, next)
			if err != nil {
				a.rollback(next)
			}
		}
		if err != nil {
			a.rollback(head)
			return 0, err
		}
		prev = next
	}
	return head, nil
}

func (a *Allocator) rollback(head uint32) {
	if _, err := a.Free(head); err != nil {
		a.log.Warn("rollback of partial allocation failed", zap.Uint32("head", head), zap.Error(err))
	}
}

// link points page ix at next.
func (a *Allocator) link(ix, next uint32) error {
	unlock := a.locks.Lock(ix)
	defer unlock()
	page, err := a.pf.ReadPage(ix)
	if err != nil {
		return err
	}
	page.SetLink(next)
	return a.pf.WritePage(ix, page)
}

// Free returns the chain headed by h to the free list and reports how many
// pages it held. Page 0, indices past the end of the file and free pages
// are rejected as invalid handles.
func (a *Allocator) Free(h uint32) (int, error) {
	if h == format.HeaderPageIndex {
		return 0, types.Errorf(types.ErrKindInvalidHandle, "alloc: page 0 is the file header")
	}
	if uint64(h) >= a.pf.PageCount() {
		return 0, types.Errorf(types.ErrKindInvalidHandle, "alloc: page %d out of range", h)
	}
	return a.free(h, true)
}

// FreeDetached returns the chain starting at ix to the free list. The chain
// must already be unreachable from any handle, for instance the tail cut
// off a chain whose head the caller holds locked.
func (a *Allocator) FreeDetached(ix uint32) (int, error) {
	return a.free(ix, false)
}

func (a *Allocator) free(first uint32, isHead bool) (int, error) {
	unlockFirst := a.locks.Lock(first)
	defer unlockFirst()

	hdr, err := a.pf.ReadHeaderFields(first)
	if err != nil {
		return 0, err
	}
	if hdr.IsFree() {
		if isHead {
			return 0, types.Errorf(types.ErrKindInvalidHandle, "%w: %d", ErrAlreadyFree, first)
		}
		return 0, types.Errorf(types.ErrKindCorrupt, "%w: %d", ErrChainFree, first)
	}

	chain, err := a.walk(first, hdr)
	if err != nil {
		return 0, err
	}

	// Phase 1: flag every page free, keeping the chain's own links. The
	// first page is already locked; the rest are locked one at a time.
	for i, ix := range chain {
		link := uint32(format.NoLink)
		if i+1 < len(chain) {
			link = chain[i+1]
		}
		if err := a.markFree(ix, ix != first, link); err != nil {
			return 0, err
		}
	}

	// Phase 2: splice the chain onto the free list. The tail is free by
	// now, so locking it under the mutex keeps the lock order.
	a.mu.Lock()
	defer a.mu.Unlock()
	tail := chain[len(chain)-1]
	if err := a.markFree(tail, tail != first, a.pf.FirstFree()); err != nil {
		return 0, err
	}
	if err := a.pf.SetFirstFree(first); err != nil {
		return 0, fmt.Errorf("alloc: update header: %w", err)
	}

	a.metrics.Freed(len(chain))
	a.log.Debug("freed chain", zap.Uint32("first", first), zap.Int("pages", len(chain)))
	return len(chain), nil
}

// walk collects the indices of the chain starting at first. The chain is
// stable while its head is write-locked.
func (a *Allocator) walk(first uint32, hdr pagefile.PageHeader) ([]uint32, error) {
	limit := a.pf.PageCount()
	chain := []uint32{first}
	for hdr.Link != format.NoLink {
		if uint64(len(chain)) >= limit {
			return nil, types.Errorf(types.ErrKindCorrupt, "%w: from page %d", ErrChainCycle, first)
		}
		next := hdr.Link
		var err error
		if hdr, err = a.pf.ReadHeaderFields(next); err != nil {
			return nil, fmt.Errorf("alloc: chain from %d: %w", first, err)
		}
		if hdr.IsFree() {
			return nil, types.Errorf(types.ErrKindCorrupt, "%w: %d -> %d", ErrChainFree, first, next)
		}
		chain = append(chain, next)
	}
	return chain, nil
}

// markFree rewrites page ix as a free page linking to link, with the
// encrypted flag and length cleared.
func (a *Allocator) markFree(ix uint32, lockPage bool, link uint32) error {
	if lockPage {
		unlock := a.locks.Lock(ix)
		defer unlock()
	}
	page, err := a.pf.ReadPage(ix)
	if err != nil {
		return err
	}
	page.SetFlag(format.StatusFree)
	page.ClearFlag(format.StatusEncrypted)
	page.SetLength(0)
	page.SetLink(link)
	return a.pf.WritePage(ix, page)
}

// Exclusive runs fn while holding the allocator mutex, so the header and
// free list stay unchanged for its duration. fn must not call back into
// the allocator.
func (a *Allocator) Exclusive(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn()
}

// FreeCount walks the free list and returns its length.
func (a *Allocator) FreeCount() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	limit := a.pf.PageCount()
	var n uint64
	for ix := a.pf.FirstFree(); ix != format.NoLink; n++ {
		if n >= limit {
			return n, types.Errorf(types.ErrKindCorrupt, "alloc: free list does not terminate")
		}
		hdr, err := a.pf.ReadHeaderFields(ix)
		if err != nil {
			return n, err
		}
		ix = hdr.Link
	}
	return n, nil
}
