// Package verify checks the integrity of a page store file: checksum
// footers of every page and the shape of the free list.
package verify

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/checksum"
	"github.com/joshuapare/pagestore/store/lock"
	"github.com/joshuapare/pagestore/store/pagefile"
)

// Validation error types.
const (
	TypeChecksum = "Checksum"
	TypeFreeList = "FreeList"
	TypeRead     = "Read"
)

// ValidationError describes the first problem found. Page is -1 when the
// problem is not tied to one page.
type ValidationError struct {
	Type    string
	Message string
	Page    int64
	Details map[string]any
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("%s at page %d: %s", e.Type, e.Page, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying read error, or the matching typed error so
// errors.Is(err, types.ErrChecksum) and errors.Is(err, types.ErrCorrupt)
// work.
func (e *ValidationError) Unwrap() error {
	switch {
	case e.Err != nil:
		return e.Err
	case e.Type == TypeChecksum:
		return types.ErrChecksum
	default:
		return types.ErrCorrupt
	}
}

// Source is the read side of a page file.
type Source interface {
	PageCount() uint64
	FirstFree() uint32
	ReadPageInto(ix uint32, dst format.Page) error
	ReadHeaderFields(ix uint32) (pagefile.PageHeader, error)
}

// ReadLocker takes shared page locks.
type ReadLocker interface {
	RLock(ix uint32) lock.Unlock
}

var _ Source = (*pagefile.File)(nil)

// Pages recomputes the checksum of every page, chapters in parallel, and
// returns the first mismatch. A failure cancels the remaining chapters.
// locks may be nil when nothing else uses the file.
func Pages(ctx context.Context, src Source, locks ReadLocker) error {
	pages := src.PageCount()
	chapters := pages / format.ChapterPages

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := range chapters {
		g.Go(func() error {
			return chapter(ctx, src, locks, uint32(c))
		})
	}
	return g.Wait()
}

func chapter(ctx context.Context, src Source, locks ReadLocker, c uint32) error {
	page := format.NewPage()
	first := c * format.ChapterPages
	for i := range uint32(format.ChapterPages) {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ix := first + i
		var err error
		if locks != nil {
			unlock := locks.RLock(ix)
			err = src.ReadPageInto(ix, page)
			unlock()
		} else {
			err = src.ReadPageInto(ix, page)
		}
		if err != nil {
			return &ValidationError{Type: TypeRead, Message: "unreadable page", Page: int64(ix), Err: err}
		}
		if !checksum.Verify(page) {
			return &ValidationError{
				Type:    TypeChecksum,
				Message: fmt.Sprintf("stored 0x%08X, computed 0x%08X", checksum.Stored(page), checksum.Sum(page)),
				Page:    int64(ix),
				Details: map[string]any{"chapter": c},
			}
		}
	}
	return nil
}

// FreeList walks the free list from the header and returns its length. It
// reports members not flagged free, links outside the file and lists that
// never terminate.
func FreeList(src Source) (uint64, error) {
	pages := src.PageCount()
	var n uint64
	prev := int64(-1)
	for ix := src.FirstFree(); ix != format.NoLink; n++ {
		if n >= pages {
			return n, &ValidationError{Type: TypeFreeList, Message: "free list does not terminate", Page: -1}
		}
		if uint64(ix) >= pages {
			return n, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("link to page %d past the end (%d pages)", ix, pages),
				Page:    prev,
			}
		}
		h, err := src.ReadHeaderFields(ix)
		if err != nil {
			return n, &ValidationError{Type: TypeRead, Message: "unreadable free page", Page: int64(ix), Err: err}
		}
		if !h.IsFree() {
			return n, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("member is not flagged free (status 0x%02X)", h.Status),
				Page:    int64(ix),
				Details: map[string]any{"position": n},
			}
		}
		prev = int64(ix)
		ix = h.Link
	}
	return n, nil
}
