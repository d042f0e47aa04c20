package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageLayoutConstants(t *testing.T) {
	require.Equal(t, 4083, PayloadSize)
	require.Equal(t, 4092, PageChecksumOffset)
	require.Equal(t, 16*1024*1024, ChapterSize)
	require.Equal(t, 16, len(Magic)+1, "magic is stored NUL-terminated in 16 bytes")
	// 4063 bytes pad to 4064 with a 16-byte block cipher; prefix + ciphertext must fit.
	require.LessOrEqual(t, EncryptedDataOffset+EncryptedPayloadSize+1, PayloadSize)
}

func TestPageFieldAccessors(t *testing.T) {
	p := NewPage()
	p.SetFlag(StatusFree)
	p.SetLink(42)
	p.SetLength(6000)

	require.True(t, p.IsFree())
	require.False(t, p.IsEncrypted())
	require.Equal(t, uint32(42), p.Link())
	require.Equal(t, uint32(6000), p.Length())

	// Offsets must match the on-disk table byte for byte.
	require.Equal(t, byte(0x01), p[0])
	require.Equal(t, []byte{42, 0, 0, 0}, []byte(p[1:5]))
	require.Equal(t, []byte{0x70, 0x17, 0, 0}, []byte(p[5:9]))

	p.SetFlag(StatusEncrypted)
	p.ClearFlag(StatusFree)
	require.False(t, p.IsFree())
	require.True(t, p.IsEncrypted())
	require.Equal(t, uint32(EncryptedPayloadSize), p.Capacity())

	// Clearing a bit that is already clear leaves it clear.
	p.ClearFlag(StatusFree)
	require.False(t, p.IsFree())

	require.Len(t, p.Payload(), PayloadSize)
	require.Len(t, p.Body(), PageChecksumOffset)
}

func TestPageReset(t *testing.T) {
	p := NewPage()
	for i := range p {
		p[i] = 0xAB
	}
	p.Reset(0, NoLink)
	require.Equal(t, byte(0), p.Status())
	require.Equal(t, uint32(0), p.Link())
	require.Equal(t, uint32(0), p.Length())
	for _, b := range p.Payload() {
		require.Zero(t, b)
	}
}

func TestAsPageRejectsWrongSize(t *testing.T) {
	_, err := AsPage(make([]byte, 100))
	require.ErrorIs(t, err, ErrTruncated)

	p, err := AsPage(make([]byte, PageSize))
	require.NoError(t, err)
	require.Len(t, p, PageSize)
}
