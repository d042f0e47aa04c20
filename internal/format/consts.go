// Package format houses the on-disk layout of a page store file: byte
// offsets of the file header and page header fields, page geometry and the
// status flag bits. The package is allocation-free and independent from the
// public API so higher-level packages can orchestrate I/O around it.
package format

// Magic is the identifying string at the start of the file header. It is
// stored NUL-terminated, so it occupies 16 bytes on disk.
const Magic = "UNICORNS 4-LIFE"

const (
	// Version is the newest file format version this package writes and reads.
	Version uint16 = 1

	// PageSize is the size of every page, including header and footer.
	PageSize = 4096

	// ChapterPages is the number of pages in one chapter, the unit of growth.
	ChapterPages = 4096

	// ChapterSize is the size of one chapter in bytes (16 MiB).
	ChapterSize = PageSize * ChapterPages

	// MaxPages is the largest number of pages addressable by a uint32 index.
	MaxPages = 1<<32 - 1

	// HeaderPageIndex is the page holding the file header. It is never
	// allocatable nor freeable.
	HeaderPageIndex = 0

	// NoLink terminates a chain (and the free list).
	NoLink = 0
)

// Page header layout:
//
//	0x00  status flags   (1 byte)
//	0x01  link           (4 bytes)
//	0x05  remaining len  (4 bytes)
//	0x09  payload        (4083 bytes)
//	0xFFC checksum       (4 bytes, CRC over [0x000, 0xFFC))
const (
	PageStatusOffset   = 0
	PageLinkOffset     = 1
	PageLengthOffset   = 5
	PagePayloadOffset  = 9
	PageHeaderSize     = 9
	PageFooterSize     = 4
	PageChecksumOffset = PageSize - PageFooterSize

	// PayloadSize is the raw payload capacity of one page.
	PayloadSize = PageSize - PageHeaderSize - PageFooterSize // 4083
)

// Encrypted payload layout. The first four payload bytes hold the length of
// the ciphertext that follows; the header's length field always counts
// plaintext bytes.
//
// The plaintext cap is chosen for a 16-byte block cipher with PKCS#7
// padding: 4063 plaintext bytes pad to 4064, and 4 + 4064 fits the payload.
const (
	EncryptedLengthOffset = 0
	EncryptedDataOffset   = 4
	EncryptedPayloadSize  = 4063
	MaxCiphertextSize     = PayloadSize - EncryptedDataOffset
)

// File header layout (page 0):
//
//	0x00  magic          (NUL-terminated, region of 50 bytes)
//	0x32  version        (2 bytes)
//	0x34  page size      (2 bytes)
//	0x36  chapter size   (2 bytes)
//	0x3C  first free     (4 bytes)
//	0xFFC checksum       (4 bytes)
const (
	FileMagicOffset       = 0
	FileMagicRegionSize   = 50
	FileVersionOffset     = 50
	FilePageSizeOffset    = 52
	FileChapterSizeOffset = 54
	FileFirstFreeOffset   = 60
)

// Status flag bits stored in a page's first byte.
const (
	StatusFree      byte = 0x01
	StatusEncrypted byte = 0x02
	StatusReadOnly  byte = 0x04 // reserved
)
