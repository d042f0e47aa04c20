package format

import "fmt"

// Page is a zero-copy view over one 4096-byte page image.
// All accessors read and write directly into the underlying slice.
type Page []byte

// NewPage allocates a zeroed page image.
func NewPage() Page { return make(Page, PageSize) }

// AsPage wraps b as a page view. b must be exactly PageSize long.
func AsPage(b []byte) (Page, error) {
	if len(b) != PageSize {
		return nil, fmt.Errorf("%w: page image is %d bytes, want %d", ErrTruncated, len(b), PageSize)
	}
	return Page(b), nil
}

// Status returns the raw status flag byte.
func (p Page) Status() byte { return p[PageStatusOffset] }

// IsFree reports whether the free flag is set.
func (p Page) IsFree() bool { return p[PageStatusOffset]&StatusFree != 0 }

// IsEncrypted reports whether the payload is stored encrypted.
func (p Page) IsEncrypted() bool { return p[PageStatusOffset]&StatusEncrypted != 0 }

// SetFlag sets the given status bits.
func (p Page) SetFlag(f byte) { p[PageStatusOffset] |= f }

// ClearFlag clears the given status bits.
func (p Page) ClearFlag(f byte) { p[PageStatusOffset] &^= f }

// Link returns the next page of the chain, or the next free page while free.
func (p Page) Link() uint32 { return ReadU32(p, PageLinkOffset) }

// SetLink stores the next page index.
func (p Page) SetLink(ix uint32) { PutU32(p, PageLinkOffset, ix) }

// Length returns the number of bytes left in the chain from this page on.
func (p Page) Length() uint32 { return ReadU32(p, PageLengthOffset) }

// SetLength stores the remaining-length counter.
func (p Page) SetLength(n uint32) { PutU32(p, PageLengthOffset, n) }

// Payload returns the payload region.
func (p Page) Payload() []byte { return p[PagePayloadOffset:PageChecksumOffset] }

// Body returns the checksummed region [0, PageChecksumOffset).
func (p Page) Body() []byte { return p[:PageChecksumOffset] }

// Checksum returns the stored footer value.
func (p Page) Checksum() uint32 { return ReadU32(p, PageChecksumOffset) }

// SetChecksum stores the footer value.
func (p Page) SetChecksum(v uint32) { PutU32(p, PageChecksumOffset, v) }

// ClearPayload zeroes the payload region.
func (p Page) ClearPayload() { clear(p.Payload()) }

// Capacity returns how many plaintext bytes one page of this kind holds.
func (p Page) Capacity() uint32 {
	if p.IsEncrypted() {
		return EncryptedPayloadSize
	}
	return PayloadSize
}

// Reset turns p into a fresh page with the given status and link, zero
// length and a zeroed payload. The footer is left for the writer to seal.
func (p Page) Reset(status byte, link uint32) {
	clear(p)
	p[PageStatusOffset] = status
	p.SetLink(link)
}

// String renders the header fields for diagnostics.
func (p Page) String() string {
	return fmt.Sprintf("status=0x%02X link=%d length=%d crc=0x%08X", p.Status(), p.Link(), p.Length(), p.Checksum())
}
