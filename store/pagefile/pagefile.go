// Package pagefile maps page indices onto byte offsets of the host file.
//
// It owns the file handle, bootstraps new files, validates the header of
// existing ones, appends chapters and persists the header. Every page image
// written goes through WritePage, which recomputes the checksum footer.
// Callers are responsible for page-level locking.
package pagefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/metrics"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store/checksum"
	"github.com/joshuapare/pagestore/store/dirty"
)

// chunkPages is how many pages AddChapter writes per call.
const chunkPages = 256

// Options configures a File.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
	// ReadOnly opens the file without write access; mutating calls fail.
	ReadOnly bool
	// FlushMode selects the durability of Flush and Close.
	// Default: dirty.FlushAuto
	FlushMode dirty.FlushMode
}

// PageHeader holds the decoded 9-byte header of one page.
type PageHeader struct {
	Status byte
	Link   uint32
	Length uint32
}

// IsFree reports whether the free flag is set.
func (h PageHeader) IsFree() bool { return h.Status&format.StatusFree != 0 }

// IsEncrypted reports whether the encrypted flag is set.
func (h PageHeader) IsEncrypted() bool { return h.Status&format.StatusEncrypted != 0 }

// File is an open page store file.
type File struct {
	path    string
	f       *os.File
	dirty   dirty.FlushableTracker
	log     *zap.Logger
	metrics *metrics.Collector
	ro      bool
	mode    dirty.FlushMode

	pages atomic.Uint64 // number of pages in whole chapters

	hdrMu  sync.Mutex
	header format.FileHeader

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens path, bootstrapping it when it is absent or empty. An existing
// non-empty file is validated and never reinitialized.
func Open(path string, opts Options) (*File, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	flag := os.O_RDWR | os.O_CREATE
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: open %s: %w", path, err)
	}

	pf := &File{
		path:    path,
		f:       f,
		dirty:   dirty.NewTracker(f),
		log:     log.With(zap.String("path", path)),
		metrics: opts.Metrics,
		ro:      opts.ReadOnly,
		mode:    opts.FlushMode,
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagefile: stat %s: %w", path, err)
	}

	if st.Size() == 0 {
		if opts.ReadOnly {
			f.Close()
			return nil, types.Errorf(types.ErrKindCorrupt, "pagefile: %s is empty", path)
		}
		err = pf.bootstrap()
	} else {
		err = pf.load(st.Size())
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return pf, nil
}

// bootstrap writes chapter 0 as a pre-linked free list followed by the
// header page.
func (pf *File) bootstrap() error {
	if err := pf.writeChapter(0); err != nil {
		return err
	}
	pf.pages.Store(format.ChapterPages)

	pf.header = format.NewFileHeader()
	if err := pf.writeHeaderLocked(); err != nil {
		return err
	}
	pf.log.Info("bootstrapped new store", zap.Uint32("first_free", pf.header.FirstFree))
	return nil
}

func (pf *File) load(size int64) error {
	if size < format.ChapterSize {
		return types.Errorf(types.ErrKindCorrupt, "%w: %d bytes", ErrShortFile, size)
	}

	page := format.NewPage()
	if _, err := pf.f.ReadAt(page, 0); err != nil {
		return types.Errorf(types.ErrKindCorrupt, "pagefile: read header: %w", err)
	}
	if !checksum.Verify(page) {
		return types.Errorf(types.ErrKindCorrupt, "pagefile: header checksum mismatch (stored 0x%08X, computed 0x%08X)",
			checksum.Stored(page), checksum.Sum(page))
	}
	hdr, err := format.ParseFileHeader(page)
	if err != nil {
		return classifyHeaderErr(err)
	}
	if err := hdr.Validate(); err != nil {
		return classifyHeaderErr(err)
	}

	chapters := uint64(size / format.ChapterSize)
	pages := chapters * format.ChapterPages
	if pages-1 > format.MaxPages {
		return types.Errorf(types.ErrKindCorrupt, "pagefile: %d chapters exceed the page index space", chapters)
	}
	if hdr.FirstFree == format.HeaderPageIndex || uint64(hdr.FirstFree) >= pages {
		return types.Errorf(types.ErrKindCorrupt, "pagefile: first free page %d outside (0, %d)", hdr.FirstFree, pages)
	}
	if size%format.ChapterSize != 0 {
		pf.log.Warn("ignoring partial trailing chapter", zap.Int64("size", size))
	}

	pf.header = hdr
	pf.pages.Store(pages)
	pf.log.Info("opened store",
		zap.Uint64("chapters", chapters),
		zap.Uint32("first_free", hdr.FirstFree))
	return nil
}

// Path returns the host file path.
func (pf *File) Path() string { return pf.path }

// PageCount returns the number of pages in the file.
func (pf *File) PageCount() uint64 { return pf.pages.Load() }

// ChapterCount returns the number of chapters in the file.
func (pf *File) ChapterCount() uint32 {
	return uint32(pf.pages.Load() / format.ChapterPages)
}

// checkIndex is the single bounds check for page indices.
func (pf *File) checkIndex(ix uint32) error {
	if pf.closed.Load() {
		return types.ErrClosed
	}
	if n := pf.pages.Load(); uint64(ix) >= n {
		return types.Errorf(types.ErrKindInvalidHandle, "pagefile: page %d out of range (%d pages)", ix, n)
	}
	return nil
}

func (pf *File) checkWritable() error {
	if pf.ro {
		return types.Errorf(types.ErrKindUnsupported, "pagefile: %s opened read-only", pf.path)
	}
	return nil
}

// ReadPage reads the full image of page ix.
func (pf *File) ReadPage(ix uint32) (format.Page, error) {
	page := format.NewPage()
	if err := pf.ReadPageInto(ix, page); err != nil {
		return nil, err
	}
	return page, nil
}

// ReadPageInto reads the full image of page ix into dst.
func (pf *File) ReadPageInto(ix uint32, dst format.Page) error {
	if err := pf.checkIndex(ix); err != nil {
		return err
	}
	if len(dst) != format.PageSize {
		return fmt.Errorf("pagefile: page buffer is %d bytes: %w", len(dst), format.ErrTruncated)
	}
	if ix == format.HeaderPageIndex {
		pf.hdrMu.Lock()
		defer pf.hdrMu.Unlock()
	}
	if _, err := pf.f.ReadAt(dst, format.PageOffset(ix)); err != nil {
		return pf.ioErr("read", ix, err)
	}
	return nil
}

// ReadHeaderFields reads only the 9-byte header of page ix.
func (pf *File) ReadHeaderFields(ix uint32) (PageHeader, error) {
	if err := pf.checkIndex(ix); err != nil {
		return PageHeader{}, err
	}
	var b [format.PageHeaderSize]byte
	if _, err := pf.f.ReadAt(b[:], format.PageOffset(ix)); err != nil {
		return PageHeader{}, pf.ioErr("read header of", ix, err)
	}
	return PageHeader{
		Status: b[format.PageStatusOffset],
		Link:   format.ReadU32(b[:], format.PageLinkOffset),
		Length: format.ReadU32(b[:], format.PageLengthOffset),
	}, nil
}

// WritePage seals page's checksum footer and writes it at index ix.
// Page 0 is only written through the header methods.
func (pf *File) WritePage(ix uint32, page format.Page) error {
	if err := pf.checkIndex(ix); err != nil {
		return err
	}
	if ix == format.HeaderPageIndex {
		return types.Errorf(types.ErrKindInvalidHandle, "%w", ErrHeaderPage)
	}
	return pf.writePage(ix, page)
}

func (pf *File) writePage(ix uint32, page format.Page) error {
	if err := pf.checkWritable(); err != nil {
		return err
	}
	if len(page) != format.PageSize {
		return fmt.Errorf("pagefile: page image is %d bytes: %w", len(page), format.ErrTruncated)
	}
	checksum.Seal(page)
	off := format.PageOffset(ix)
	if _, err := pf.f.WriteAt(page, off); err != nil {
		return pf.ioErr("write", ix, err)
	}
	pf.dirty.Add(off, format.PageSize)
	return nil
}

// VerifyPage reports whether page ix's footer matches its content.
func (pf *File) VerifyPage(ix uint32) (bool, error) {
	page, err := pf.ReadPage(ix)
	if err != nil {
		return false, err
	}
	ok := checksum.Verify(page)
	if !ok {
		pf.metrics.ChecksumFailed()
		pf.log.Warn("page checksum mismatch",
			zap.Uint32("page", ix),
			zap.Uint32("stored", checksum.Stored(page)),
			zap.Uint32("computed", checksum.Sum(page)))
	}
	return ok, nil
}

// AddChapter appends one chapter whose pages form a pre-linked free list
// and returns the index of its first page. The caller must serialize
// AddChapter with every other header or free-list mutation.
func (pf *File) AddChapter() (uint32, error) {
	if pf.closed.Load() {
		return 0, types.ErrClosed
	}
	if err := pf.checkWritable(); err != nil {
		return 0, err
	}
	cur := pf.pages.Load()
	next := cur + format.ChapterPages
	if next-1 > format.MaxPages {
		return 0, types.Errorf(types.ErrKindCapacity, "pagefile: page index space exhausted at %d pages", cur)
	}
	chapter := uint32(cur / format.ChapterPages)
	if err := pf.writeChapter(chapter); err != nil {
		return 0, err
	}
	pf.pages.Store(next)
	pf.metrics.Grew()
	pf.log.Info("added chapter",
		zap.Uint32("chapter", chapter),
		zap.Uint64("pages", next))
	return uint32(cur), nil
}

// writeChapter writes every page of chapter n flagged free, each linking
// to its successor and the last one terminating the list. Page 0 of
// chapter 0 is skipped; it belongs to the header.
func (pf *File) writeChapter(n uint32) error {
	first := uint64(n) * format.ChapterPages
	buf := make([]byte, chunkPages*format.PageSize)

	for start := uint64(0); start < format.ChapterPages; start += chunkPages {
		clear(buf)
		for i := range uint64(chunkPages) {
			ix := first + start + i
			page := format.Page(buf[i*format.PageSize : (i+1)*format.PageSize])
			if ix == format.HeaderPageIndex {
				continue
			}
			link := uint32(ix + 1)
			if start+i == format.ChapterPages-1 {
				link = format.NoLink
			}
			page.Reset(format.StatusFree, link)
			checksum.Seal(page)
		}
		off := format.PageOffset(uint32(first+start))
		if _, err := pf.f.WriteAt(buf, off); err != nil {
			return fmt.Errorf("pagefile: write chapter %d: %w", n, err)
		}
		pf.dirty.Add(off, len(buf))
	}
	return nil
}

// FirstFree returns the head of the free list.
func (pf *File) FirstFree() uint32 {
	pf.hdrMu.Lock()
	defer pf.hdrMu.Unlock()
	return pf.header.FirstFree
}

// Header returns a copy of the decoded file header.
func (pf *File) Header() format.FileHeader {
	pf.hdrMu.Lock()
	defer pf.hdrMu.Unlock()
	return pf.header
}

// SetFirstFree updates the free-list head and persists the header.
func (pf *File) SetFirstFree(ix uint32) error {
	if err := pf.checkIndex(ix); err != nil {
		return err
	}
	if ix == format.HeaderPageIndex {
		return types.Errorf(types.ErrKindCorrupt, "pagefile: free list head cannot be page 0")
	}
	pf.hdrMu.Lock()
	defer pf.hdrMu.Unlock()
	pf.header.FirstFree = ix
	return pf.writeHeaderLocked()
}

// WriteFileHeader persists the in-memory header.
func (pf *File) WriteFileHeader() error {
	if pf.closed.Load() {
		return types.ErrClosed
	}
	pf.hdrMu.Lock()
	defer pf.hdrMu.Unlock()
	return pf.writeHeaderLocked()
}

func (pf *File) writeHeaderLocked() error {
	page := format.NewPage()
	pf.header.Encode(page)
	return pf.writePage(format.HeaderPageIndex, page)
}

// Flush writes back every dirty range and syncs the file.
func (pf *File) Flush(ctx context.Context) error {
	if pf.closed.Load() {
		return types.ErrClosed
	}
	if pf.ro {
		return nil
	}
	if err := pf.dirty.Flush(ctx, pf.mode); err != nil {
		return fmt.Errorf("pagefile: flush: %w", err)
	}
	return nil
}

// Close persists the header, flushes and closes the file. Only the first
// call does any work; later calls return its result.
func (pf *File) Close() error {
	pf.closeOnce.Do(func() {
		var errs []error
		if !pf.ro {
			if err := pf.WriteFileHeader(); err != nil {
				errs = append(errs, err)
			}
			mode := pf.mode
			if mode == dirty.FlushDataOnly {
				mode = dirty.FlushAuto
			}
			if err := pf.dirty.Flush(context.Background(), mode); err != nil {
				errs = append(errs, fmt.Errorf("pagefile: flush: %w", err))
			}
		}
		pf.closed.Store(true)
		if err := pf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pagefile: close: %w", err))
		}
		pf.closeErr = errors.Join(errs...)
		pf.log.Info("closed store", zap.Error(pf.closeErr))
	})
	return pf.closeErr
}

func (pf *File) ioErr(op string, ix uint32, err error) error {
	switch {
	case errors.Is(err, os.ErrClosed):
		return types.ErrClosed
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return types.Errorf(types.ErrKindCorrupt, "pagefile: %s page %d: file truncated: %w", op, ix, err)
	}
	return fmt.Errorf("pagefile: %s page %d: %w", op, ix, err)
}
