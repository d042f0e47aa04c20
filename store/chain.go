package store

import (
	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/checksum"
)

// checkHandle rejects handles that can never name a chain.
func (s *Store) checkHandle(h types.Handle) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !h.Valid() {
		return types.Errorf(types.ErrKindInvalidHandle, "store: page 0 is the file header")
	}
	if uint64(h) >= s.pf.PageCount() {
		return types.Errorf(types.ErrKindInvalidHandle, "store: handle %d out of range (%d pages)", h, s.pf.PageCount())
	}
	return nil
}

// readHead reads the head page of h, which the caller holds locked.
func (s *Store) readHead(h types.Handle) (format.Page, error) {
	page, err := s.readPage(uint32(h))
	if err != nil {
		return nil, err
	}
	if page.IsFree() {
		return nil, types.Errorf(types.ErrKindInvalidHandle, "store: handle %d is a free page", h)
	}
	return page, nil
}

// readLinked reads page ix reached through a link of the chain headed by
// h. A free page there means the chain is broken.
func (s *Store) readLinked(h types.Handle, ix uint32) (format.Page, error) {
	page, err := s.readPage(ix)
	if err != nil {
		return nil, err
	}
	if page.IsFree() {
		return nil, types.Errorf(types.ErrKindCorrupt, "store: chain %d links to free page %d", h, ix)
	}
	return page, nil
}

func (s *Store) readPage(ix uint32) (format.Page, error) {
	page, err := s.pf.ReadPage(ix)
	if err != nil {
		return nil, err
	}
	if s.opts.VerifyOnRead && !checksum.Verify(page) {
		s.metrics.ChecksumFailed()
		return nil, types.Errorf(types.ErrKindChecksum, "store: page %d: stored 0x%08X, computed 0x%08X",
			ix, checksum.Stored(page), checksum.Sum(page))
	}
	return page, nil
}

// decode returns the plaintext held by page: at most one page's capacity,
// bounded by the page's remaining length.
func (s *Store) decode(page format.Page, ix uint32) ([]byte, error) {
	n := min(page.Length(), page.Capacity())
	if !page.IsEncrypted() {
		return page.Payload()[:n], nil
	}
	if s.codec == nil {
		return nil, types.Errorf(types.ErrKindSecurity, "store: page %d is encrypted and no password was given", ix)
	}
	plain, err := s.codec.Open(page.Payload())
	if err != nil {
		return nil, err
	}
	if uint32(len(plain)) != n {
		return nil, types.Errorf(types.ErrKindCorrupt, "store: page %d decrypts to %d bytes, want %d", ix, len(plain), n)
	}
	return plain, nil
}

// encode stores plain in page's payload, encrypting when the store has a
// key, and sets the encrypted flag to match.
func (s *Store) encode(page format.Page, plain []byte) error {
	if s.codec == nil {
		page.ClearFlag(format.StatusEncrypted)
		page.ClearPayload()
		copy(page.Payload(), plain)
		return nil
	}
	if err := s.codec.Seal(page.Payload(), plain); err != nil {
		return err
	}
	page.SetFlag(format.StatusEncrypted)
	return nil
}

// checkLink rejects a link from page cur back to the head or to cur
// itself. Both are locked by the walker when the link is followed, and page
// locks are not re-entrant.
func checkLink(h types.Handle, cur, next uint32) error {
	if next == uint32(h) || next == cur {
		return types.Errorf(types.ErrKindCorrupt, "store: chain %d page %d links back to page %d", h, cur, next)
	}
	return nil
}

// chainGuard bounds a chain walk by the number of pages in the file.
type chainGuard struct {
	h     types.Handle
	limit uint64
	seen  uint64
}

func (s *Store) guard(h types.Handle) *chainGuard {
	return &chainGuard{h: h, limit: s.pf.PageCount()}
}

func (g *chainGuard) step() error {
	g.seen++
	if g.seen > g.limit {
		return types.Errorf(types.ErrKindCorrupt, "store: chain %d does not terminate", g.h)
	}
	return nil
}
