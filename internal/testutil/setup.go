package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/pagestore/store"
)

// SetupTestStore creates a fresh store in a temporary directory and opens
// it with opts. The store is closed when the test ends.
// Returns the opened store and its path.
//
// Example:
//
//	s, path := testutil.SetupTestStore(t, nil)
func SetupTestStore(t *testing.T, opts *store.Options) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), TestStoreName)
	return OpenTestStore(t, path, opts), path
}

// OpenTestStore opens the store at path and closes it when the test ends.
func OpenTestStore(t *testing.T, path string, opts *store.Options) *store.Store {
	t.Helper()
	s, err := store.Open(path, opts)
	if err != nil {
		t.Fatalf("Failed to open store %s: %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// FlipByte inverts the low bit of the byte at off in the file at path.
func FlipByte(t *testing.T, path string, off int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	b := make([]byte, 1)
	if _, err := f.ReadAt(b, off); err != nil {
		t.Fatalf("Failed to read byte at %d: %v", off, err)
	}
	b[0] ^= 0x01
	if _, err := f.WriteAt(b, off); err != nil {
		t.Fatalf("Failed to write byte at %d: %v", off, err)
	}
}

// Pattern returns n deterministic bytes that differ per seed and per
// position, so misplaced pages show up as mismatches.
func Pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31+i/4096) ^ seed
	}
	return b
}
