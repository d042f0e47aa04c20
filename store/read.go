package store

import (
	"fmt"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
)

// ReadAll returns the full content of h's chain.
func (s *Store) ReadAll(h types.Handle) ([]byte, error) {
	if err := s.checkHandle(h); err != nil {
		return nil, err
	}
	unlock := s.locks.RLock(uint32(h))
	defer unlock()

	page, err := s.readHead(h)
	if err != nil {
		return nil, fmt.Errorf("store: read %d: %w", h, err)
	}

	total := page.Length()
	out := make([]byte, 0, total)
	if err := s.walk(h, page, 0, func(_ uint32, plain []byte) bool {
		out = append(out, plain...)
		return true
	}); err != nil {
		return nil, err
	}
	if uint32(len(out)) != total {
		return nil, types.Errorf(types.ErrKindCorrupt, "store: chain %d holds %d of %d bytes", h, len(out), total)
	}
	s.metrics.Read(len(out))
	return out, nil
}

// ReadAt returns up to count bytes of h's chain starting at off. The count
// is clamped to the end of the chain; off at or past the end fails with an
// out-of-range error.
func (s *Store) ReadAt(h types.Handle, off, count uint32) ([]byte, error) {
	if err := s.checkHandle(h); err != nil {
		return nil, err
	}
	unlock := s.locks.RLock(uint32(h))
	defer unlock()

	page, err := s.readHead(h)
	if err != nil {
		return nil, fmt.Errorf("store: read %d at %d: %w", h, off, err)
	}
	length := page.Length()
	if off >= length {
		return nil, types.Errorf(types.ErrKindOutOfRange, "store: offset %d at or past end of chain %d (%d bytes)", off, h, length)
	}
	count = min(count, length-off)

	out := make([]byte, 0, count)
	if count == 0 {
		return out, nil
	}
	capacity := page.Capacity()
	skip := off / capacity
	inner := off % capacity
	if err := s.walk(h, page, skip, func(_ uint32, plain []byte) bool {
		if uint32(len(plain)) > inner {
			plain = plain[inner:]
		} else {
			plain = nil
		}
		inner = 0
		need := count - uint32(len(out))
		out = append(out, plain[:min(need, uint32(len(plain)))]...)
		return uint32(len(out)) < count
	}); err != nil {
		return nil, err
	}
	if uint32(len(out)) != count {
		return nil, types.Errorf(types.ErrKindCorrupt, "store: chain %d ended %d bytes short", h, count-uint32(len(out)))
	}
	s.metrics.Read(len(out))
	return out, nil
}

// ReadInto copies up to count bytes of h's chain starting at off into dst
// and returns how many bytes were copied. dst must hold count bytes.
func (s *Store) ReadInto(h types.Handle, dst []byte, off, count uint32) (int, error) {
	if uint64(len(dst)) < uint64(count) {
		return 0, types.Errorf(types.ErrKindOutOfRange, "store: buffer of %d bytes cannot hold %d", len(dst), count)
	}
	data, err := s.ReadAt(h, off, count)
	if err != nil {
		return 0, err
	}
	return copy(dst, data), nil
}

// Length returns the byte length of h's chain.
func (s *Store) Length(h types.Handle) (uint32, error) {
	if err := s.checkHandle(h); err != nil {
		return 0, err
	}
	unlock := s.locks.RLock(uint32(h))
	defer unlock()

	page, err := s.readHead(h)
	if err != nil {
		return 0, fmt.Errorf("store: length %d: %w", h, err)
	}
	return page.Length(), nil
}

// walk visits the pages of h's chain starting with head, whose lock the
// caller holds, skipping the first skip pages without decoding them. visit
// receives each page's plaintext and returns false to stop. Every page's
// remaining length must match the head's, less the bytes before it.
func (s *Store) walk(h types.Handle, head format.Page, skip uint32, visit func(ix uint32, plain []byte) bool) error {
	g := s.guard(h)
	ix := uint32(h)
	page := head
	expect := head.Length()
	capacity := head.Capacity()

	for k := uint32(0); ; k++ {
		if err := g.step(); err != nil {
			return err
		}
		if page.Length() != expect {
			return types.Errorf(types.ErrKindCorrupt, "store: chain %d page %d records %d remaining bytes, want %d",
				h, ix, page.Length(), expect)
		}
		if k >= skip {
			plain, err := s.decode(page, ix)
			if err != nil {
				return fmt.Errorf("store: read %d: %w", h, err)
			}
			if !visit(ix, plain) {
				return nil
			}
		}
		if expect <= capacity {
			return nil
		}
		expect -= capacity

		next := page.Link()
		if next == format.NoLink {
			return types.Errorf(types.ErrKindCorrupt, "store: chain %d ends at page %d with %d bytes outstanding", h, ix, expect)
		}
		if err := checkLink(h, ix, next); err != nil {
			return err
		}
		var err error
		unlock := s.locks.RLock(next)
		page, err = s.readLinked(h, next)
		unlock()
		if err != nil {
			return fmt.Errorf("store: read %d: %w", h, err)
		}
		ix = next
	}
}
