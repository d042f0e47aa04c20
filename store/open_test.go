package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/testutil"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store"
	"github.com/joshuapare/pagestore/store/checksum"
)

// rewriteHeader applies mutate to page 0 of the store at path and reseals
// its footer.
func rewriteHeader(t *testing.T, path string, mutate func(format.Page)) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	page := format.NewPage()
	_, err = f.ReadAt(page, 0)
	require.NoError(t, err)
	mutate(page)
	checksum.Seal(page)
	_, err = f.WriteAt(page, 0)
	require.NoError(t, err)
}

func TestOpenRejectsNewerVersionAsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.TestStoreName)
	s, err := store.Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	rewriteHeader(t, path, func(p format.Page) {
		format.PutU16(p, format.FileVersionOffset, format.Version+1)
	})

	_, err = store.Open(path, nil)
	require.ErrorIs(t, err, types.ErrCorrupt)
	require.ErrorIs(t, err, format.ErrUnsupported)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	require.Equal(t, int64(format.ChapterSize), info.Size(), "an existing file is never reinitialized")
}
