package store

import (
	"fmt"
	"math"

	"github.com/joshuapare/pagestore/internal/buf"
	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/lock"
)

// Write replaces the content of h's chain with data. Pages are allocated
// and linked when the chain is too short; pages past the end of data are
// freed. With encryption enabled every page is stored encrypted.
func (s *Store) Write(h types.Handle, data []byte) error {
	if err := s.checkHandle(h); err != nil {
		return err
	}
	if uint64(len(data)) > math.MaxUint32 {
		return types.Errorf(types.ErrKindCapacity, "store: %d bytes exceed the chain length limit", len(data))
	}

	unlockHead := s.locks.Lock(uint32(h))
	defer unlockHead()

	page, err := s.readHead(h)
	if err != nil {
		return fmt.Errorf("store: write %d: %w", h, err)
	}

	g := s.guard(h)
	cur := uint32(h)
	unlockCur := lock.Unlock(func() {})
	defer func() { unlockCur() }()

	remaining := uint32(len(data))
	off := 0
	for {
		if err := g.step(); err != nil {
			return err
		}
		n := min(remaining, s.capacity)
		page.SetLength(remaining)
		if err := s.encode(page, data[off:off+int(n)]); err != nil {
			return fmt.Errorf("store: write %d: page %d: %w", h, cur, err)
		}
		off += int(n)
		remaining -= n

		next := page.Link()
		if next != format.NoLink {
			if err := checkLink(h, cur, next); err != nil {
				return err
			}
		}
		if remaining == 0 {
			page.SetLink(format.NoLink)
			if err := s.pf.WritePage(cur, page); err != nil {
				return fmt.Errorf("store: write %d: %w", h, err)
			}
			if next != format.NoLink {
				if _, err := s.alloc.FreeDetached(next); err != nil {
					return fmt.Errorf("store: write %d: release tail: %w", h, err)
				}
			}
			break
		}
		if next == format.NoLink {
			if next, err = s.alloc.Allocate(); err != nil {
				return fmt.Errorf("store: write %d: extend: %w", h, err)
			}
			page.SetLink(next)
		}
		if err := s.pf.WritePage(cur, page); err != nil {
			return fmt.Errorf("store: write %d: %w", h, err)
		}

		unlockCur()
		unlockCur = s.locks.Lock(next)
		cur = next
		if page, err = s.readLinked(h, cur); err != nil {
			return fmt.Errorf("store: write %d: %w", h, err)
		}
	}

	s.metrics.Wrote(len(data))
	return s.afterWrite()
}

// WriteAt overwrites len(data) bytes of h's chain starting at pos without
// truncating it. The chain grows when pos+len(data) passes its end; bytes
// between the old end and pos read back as zeros. WriteAt is not available
// on encrypted stores or chains.
func (s *Store) WriteAt(h types.Handle, pos uint32, data []byte) error {
	if err := s.checkHandle(h); err != nil {
		return err
	}
	if s.codec != nil {
		return types.Errorf(types.ErrKindUnsupported, "store: positional writes are not supported with encryption")
	}
	if len(data) == 0 {
		return nil
	}
	end, ok := buf.AddU32(pos, len(data))
	if !ok {
		return types.Errorf(types.ErrKindCapacity, "store: write of %d bytes at %d passes the chain length limit", len(data), pos)
	}

	unlockHead := s.locks.Lock(uint32(h))
	defer unlockHead()

	page, err := s.readHead(h)
	if err != nil {
		return fmt.Errorf("store: write %d at %d: %w", h, pos, err)
	}
	if page.IsEncrypted() {
		return types.Errorf(types.ErrKindUnsupported, "store: chain %d is encrypted", h)
	}

	const pageCap = uint64(format.PayloadSize)
	newLen := uint64(max(page.Length(), end))
	lastPage := (uint64(end) - 1) / pageCap

	g := s.guard(h)
	cur := uint32(h)
	unlockCur := lock.Unlock(func() {})
	defer func() { unlockCur() }()

	for k := uint64(0); ; k++ {
		if err := g.step(); err != nil {
			return err
		}
		if page.IsEncrypted() {
			return types.Errorf(types.ErrKindUnsupported, "store: chain %d has encrypted page %d", h, cur)
		}
		pageStart := k * pageCap
		page.SetLength(uint32(newLen - pageStart))

		// Copy the part of data that falls inside this page.
		lo := max(uint64(pos), pageStart)
		hi := min(uint64(end), pageStart+pageCap)
		if lo < hi {
			copy(page.Payload()[lo-pageStart:hi-pageStart], data[lo-uint64(pos):hi-uint64(pos)])
		}

		if k == lastPage {
			if err := s.pf.WritePage(cur, page); err != nil {
				return fmt.Errorf("store: write %d at %d: %w", h, pos, err)
			}
			break
		}
		next := page.Link()
		if next == format.NoLink {
			if next, err = s.alloc.Allocate(); err != nil {
				return fmt.Errorf("store: write %d at %d: extend: %w", h, pos, err)
			}
			page.SetLink(next)
		} else if err := checkLink(h, cur, next); err != nil {
			return err
		}
		if err := s.pf.WritePage(cur, page); err != nil {
			return fmt.Errorf("store: write %d at %d: %w", h, pos, err)
		}

		unlockCur()
		unlockCur = s.locks.Lock(next)
		cur = next
		if page, err = s.readLinked(h, cur); err != nil {
			return fmt.Errorf("store: write %d at %d: %w", h, pos, err)
		}
	}

	s.metrics.Wrote(len(data))
	return s.afterWrite()
}
