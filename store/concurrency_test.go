package store_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/testutil"
	"github.com/joshuapare/pagestore/pkg/types"
)

// sizeFor gives each writer seed its own chain length so a reader can
// tell from the first byte which write it observed.
func sizeFor(seed byte) int {
	return 100 + int(seed)*format.PayloadSize/7
}

func TestConcurrentReadersSeeWholeWrites(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, nil)

	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, testutil.Pattern(sizeFor(0), 0)))

	const (
		writers = 4
		rounds  = 25
		readers = 8
	)
	var g errgroup.Group
	for w := range writers {
		g.Go(func() error {
			for r := range rounds {
				seed := byte(w*rounds + r)
				if err := s.Write(h, testutil.Pattern(sizeFor(seed), seed)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for range readers {
		g.Go(func() error {
			for range rounds * 2 {
				got, err := s.ReadAll(h)
				if err != nil {
					return err
				}
				seed := got[0]
				if want := testutil.Pattern(sizeFor(seed), seed); string(want) != string(got) {
					return fmt.Errorf("torn read: %d bytes, seed %d", len(got), seed)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.True(t, s.ValidateAll(t.Context()))
}

func TestConcurrentIndependentChains(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, nil)

	const workers = 8
	handles := make([]types.Handle, workers)
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			var keep types.Handle
			for i := range 30 {
				h, err := s.Allocate()
				if err != nil {
					return err
				}
				data := testutil.Pattern(1+(w*977+i*1319)%(3*format.PayloadSize), byte(w))
				if err := s.Write(h, data); err != nil {
					return err
				}
				got, err := s.ReadAll(h)
				if err != nil {
					return err
				}
				if string(got) != string(data) {
					return fmt.Errorf("worker %d chain %d read back %d bytes, want %d", w, h, len(got), len(data))
				}
				if i%3 == 0 {
					if keep != types.InvalidHandle {
						if err := s.Free(keep); err != nil {
							return err
						}
					}
					keep = h
					continue
				}
				if err := s.Free(h); err != nil {
					return err
				}
			}
			handles[w] = keep
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, s.Validate(t.Context()))

	for w, h := range handles {
		length, err := s.Length(h)
		require.NoError(t, err, "worker %d", w)
		require.NotZero(t, length)
	}

	stats, err := s.Stats()
	require.NoError(t, err)
	require.Less(t, stats.FreePages, stats.Pages)
}
