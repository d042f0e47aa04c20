package format

import (
	"bytes"
	"fmt"
)

// FileHeader is the decoded content of page 0.
type FileHeader struct {
	Magic       string
	Version     uint16
	PageSize    uint16
	ChapterSize uint16
	FirstFree   uint32
}

// NewFileHeader returns the header written for a freshly bootstrapped file.
func NewFileHeader() FileHeader {
	return FileHeader{
		Magic:       Magic,
		Version:     Version,
		PageSize:    PageSize,
		ChapterSize: ChapterPages,
		FirstFree:   1,
	}
}

// ParseFileHeader decodes page 0. It does not verify the checksum; callers
// verify the page before trusting any field.
func ParseFileHeader(p Page) (FileHeader, error) {
	if len(p) < PageSize {
		return FileHeader{}, fmt.Errorf("%w: header page is %d bytes", ErrTruncated, len(p))
	}
	region := p[FileMagicOffset : FileMagicOffset+FileMagicRegionSize]
	if n := bytes.IndexByte(region, 0); n >= 0 {
		region = region[:n]
	}
	return FileHeader{
		Magic:       string(region),
		Version:     ReadU16(p, FileVersionOffset),
		PageSize:    ReadU16(p, FilePageSizeOffset),
		ChapterSize: ReadU16(p, FileChapterSizeOffset),
		FirstFree:   ReadU32(p, FileFirstFreeOffset),
	}, nil
}

// Validate checks the identifying fields of a decoded header.
func (h FileHeader) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: got %q", ErrSignatureMismatch, h.Magic)
	}
	if h.Version > Version {
		return fmt.Errorf("%w: version %d (newest supported %d)", ErrUnsupported, h.Version, Version)
	}
	if h.PageSize != PageSize || h.ChapterSize != ChapterPages {
		return fmt.Errorf("%w: page size %d, chapter size %d", ErrUnsupported, h.PageSize, h.ChapterSize)
	}
	return nil
}

// Encode writes the header into a zeroed page image. The checksum footer is
// not computed here.
func (h FileHeader) Encode(p Page) {
	clear(p)
	copy(p[FileMagicOffset:FileMagicOffset+FileMagicRegionSize-1], h.Magic)
	PutU16(p, FileVersionOffset, h.Version)
	PutU16(p, FilePageSizeOffset, h.PageSize)
	PutU16(p, FileChapterSizeOffset, h.ChapterSize)
	PutU32(p, FileFirstFreeOffset, h.FirstFree)
}

// PageOffset returns the absolute file offset of page ix.
func PageOffset(ix uint32) int64 { return int64(ix) * PageSize }

// ChapterOffset returns the absolute file offset of chapter n.
func ChapterOffset(n uint32) int64 { return int64(n) * ChapterSize }
