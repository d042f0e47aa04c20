// Package checksum implements the page integrity codec: a 32-bit CRC over
// every byte of a page except its 4-byte footer.
//
// The value is the reflected CRC-32 (polynomial 0xEDB88320, initial value
// and final XOR 0xFFFFFFFF), which is what hash/crc32 calls IEEE.
package checksum

import (
	"hash/crc32"

	"github.com/joshuapare/pagestore/internal/format"
)

var table = crc32.IEEETable

// Sum computes the checksum over the checksummed region of a page image.
// page must be at least format.PageChecksumOffset bytes long.
func Sum(page []byte) uint32 {
	return crc32.Checksum(page[:format.PageChecksumOffset], table)
}

// Stored returns the footer value recorded in a page image.
func Stored(page []byte) uint32 {
	return format.ReadU32(page, format.PageChecksumOffset)
}

// Seal computes the checksum of page and writes it into the footer.
func Seal(page []byte) {
	format.PutU32(page, format.PageChecksumOffset, Sum(page))
}

// Verify reports whether the footer of page matches its content.
func Verify(page []byte) bool {
	if len(page) < format.PageSize {
		return false
	}
	return Sum(page) == Stored(page)
}

// Update extends a running checksum with p.
func Update(crc uint32, p []byte) uint32 {
	return crc32.Update(crc, table, p)
}
