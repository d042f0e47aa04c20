package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeaderEncodeOffsets(t *testing.T) {
	p := NewPage()
	NewFileHeader().Encode(p)

	require.Equal(t, []byte(Magic), []byte(p[:15]))
	require.Zero(t, p[15], "magic is NUL-terminated")
	require.Equal(t, uint16(1), ReadU16(p, 50))
	require.Equal(t, uint16(4096), ReadU16(p, 52))
	require.Equal(t, uint16(4096), ReadU16(p, 54))
	require.Equal(t, uint32(1), ReadU32(p, 60))
}

func TestFileHeaderRoundTrip(t *testing.T) {
	p := NewPage()
	want := NewFileHeader()
	want.FirstFree = 77
	want.Encode(p)

	got, err := ParseFileHeader(p)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, got.Validate())
}

func TestFileHeaderValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *FileHeader)
		want   error
	}{
		{"bad magic", func(h *FileHeader) { h.Magic = "NOT A STORE" }, ErrSignatureMismatch},
		{"newer version", func(h *FileHeader) { h.Version = Version + 1 }, ErrUnsupported},
		{"page size", func(h *FileHeader) { h.PageSize = 512 }, ErrUnsupported},
		{"chapter size", func(h *FileHeader) { h.ChapterSize = 1024 }, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFileHeader()
			tt.mutate(&h)
			require.ErrorIs(t, h.Validate(), tt.want)
		})
	}

	older := NewFileHeader()
	older.Version = 0
	require.NoError(t, older.Validate(), "older versions are accepted")
}

func TestParseFileHeaderTruncated(t *testing.T) {
	_, err := ParseFileHeader(Page(make([]byte, 10)))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestOffsets(t *testing.T) {
	require.Equal(t, int64(4096*3), PageOffset(3))
	require.Equal(t, int64(ChapterSize*2), ChapterOffset(2))
	// Indices beyond 2^19 overflow 32-bit byte offsets; PageOffset must not.
	require.Equal(t, int64(1<<20)*4096, PageOffset(1<<20))
}
