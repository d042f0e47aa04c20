package store_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/testutil"
	"github.com/joshuapare/pagestore/pkg/types"
)

func TestReadAt(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, nil)

	data := testutil.Pattern(3*format.PayloadSize+500, 11)
	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, data))

	tests := []struct {
		name       string
		off, count uint32
		want       []byte
	}{
		{"head", 0, 10, data[:10]},
		{"inside first page", 100, 200, data[100:300]},
		{"across one boundary", format.PayloadSize - 5, 10, data[format.PayloadSize-5 : format.PayloadSize+5]},
		{"start of second page", format.PayloadSize, 3, data[format.PayloadSize : format.PayloadSize+3]},
		{"spanning three pages", 10, 2*format.PayloadSize + 10, data[10 : 2*format.PayloadSize+20]},
		{"clamped at end", uint32(len(data)) - 4, 100, data[len(data)-4:]},
		{"huge count", 0, math.MaxUint32, data},
		{"zero count", 5, 0, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ReadAt(h, tt.off, tt.count)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReadAtOutOfRange(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, nil)

	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, []byte("0123456789")))

	_, err = s.ReadAt(h, 10, 1)
	require.ErrorIs(t, err, types.ErrOutOfRange)
	_, err = s.ReadAt(h, 1000, 1)
	require.ErrorIs(t, err, types.ErrOutOfRange)

	empty, err := s.Allocate()
	require.NoError(t, err)
	_, err = s.ReadAt(empty, 0, 0)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestReadInto(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, nil)

	data := testutil.Pattern(5000, 12)
	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, data))

	dst := make([]byte, 100)
	n, err := s.ReadInto(h, dst, 4050, 100)
	require.NoError(t, err)
	require.Equal(t, 100, n)
	require.Equal(t, data[4050:4150], dst)

	n, err = s.ReadInto(h, dst, 4990, 100)
	require.NoError(t, err)
	require.Equal(t, 10, n, "clamped to the end of the chain")
	require.Equal(t, data[4990:], dst[:10])

	_, err = s.ReadInto(h, make([]byte, 5), 0, 6)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}
