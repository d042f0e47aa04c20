package store

import (
	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/checksum"
)

// PageInfo describes one page for diagnostics.
type PageInfo struct {
	Index     uint32 `json:"index"`
	Status    byte   `json:"status"`
	Free      bool   `json:"free"`
	Encrypted bool   `json:"encrypted"`
	Link      uint32 `json:"link"`
	Length    uint32 `json:"length"`
	Checksum  uint32 `json:"checksum"`
	Valid     bool   `json:"valid"`
}

// Inspect decodes the header of page ix, including page 0, and checks its
// footer.
func (s *Store) Inspect(ix uint32) (PageInfo, error) {
	if err := s.usable(); err != nil {
		return PageInfo{}, err
	}
	unlock := s.locks.RLock(ix)
	defer unlock()

	page, err := s.pf.ReadPage(ix)
	if err != nil {
		return PageInfo{}, err
	}
	return PageInfo{
		Index:     ix,
		Status:    page.Status(),
		Free:      page.IsFree(),
		Encrypted: page.IsEncrypted(),
		Link:      page.Link(),
		Length:    page.Length(),
		Checksum:  page.Checksum(),
		Valid:     checksum.Verify(page),
	}, nil
}

// Chain returns the page indices of h's chain in order.
func (s *Store) Chain(h types.Handle) ([]uint32, error) {
	if err := s.checkHandle(h); err != nil {
		return nil, err
	}
	unlock := s.locks.RLock(uint32(h))
	defer unlock()

	if _, err := s.readHead(h); err != nil {
		return nil, err
	}
	g := s.guard(h)
	var out []uint32
	for ix := uint32(h); ix != format.NoLink; {
		if err := g.step(); err != nil {
			return out, err
		}
		out = append(out, ix)
		hdr, err := s.pf.ReadHeaderFields(ix)
		if err != nil {
			return out, err
		}
		ix = hdr.Link
	}
	return out, nil
}

// FreePages returns up to limit indices from the head of the free list.
// A non-positive limit returns the whole list.
func (s *Store) FreePages(limit int) ([]uint32, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	var out []uint32
	err := s.alloc.Exclusive(func() error {
		n := s.pf.PageCount()
		for ix := s.pf.FirstFree(); ix != format.NoLink; {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			if uint64(len(out)) >= n {
				return types.Errorf(types.ErrKindCorrupt, "store: free list does not terminate")
			}
			out = append(out, ix)
			hdr, err := s.pf.ReadHeaderFields(ix)
			if err != nil {
				return err
			}
			ix = hdr.Link
		}
		return nil
	})
	return out, err
}
