package store_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagestore/internal/format"
	"github.com/joshuapare/pagestore/internal/testutil"
	"github.com/joshuapare/pagestore/pkg/types"
	"github.com/joshuapare/pagestore/store"
)

func encrypted(password string) *store.Options {
	return &store.Options{UseEncryption: true, Password: []byte(password)}
}

func TestEncryptedRoundTrip(t *testing.T) {
	s, _ := testutil.SetupTestStore(t, encrypted("secret"))
	require.True(t, s.Encrypted())

	sizes := []int{0, 1, 15, 16, 17, format.EncryptedPayloadSize - 1, format.EncryptedPayloadSize,
		format.EncryptedPayloadSize + 1, format.PayloadSize, 3*format.EncryptedPayloadSize + 7}
	for _, size := range sizes {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			data := testutil.Pattern(size, byte(size))
			h, err := s.Allocate()
			require.NoError(t, err)
			require.NoError(t, s.Write(h, data))

			got, err := s.ReadAll(h)
			require.NoError(t, err)
			require.Equal(t, data, got)

			chain, err := s.Chain(h)
			require.NoError(t, err)
			want := max(1, (size+format.EncryptedPayloadSize-1)/format.EncryptedPayloadSize)
			require.Len(t, chain, want)

			if size > 100 {
				part, err := s.ReadAt(h, uint32(size-100), 50)
				require.NoError(t, err)
				require.Equal(t, data[size-100:size-50], part)
			}
		})
	}
	require.True(t, s.ValidateAll(t.Context()))
}

func TestEncryptedPagesHoldCiphertext(t *testing.T) {
	s, path := testutil.SetupTestStore(t, encrypted("secret"))

	data := bytes.Repeat([]byte("plaintext!"), 100)
	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, data))

	info, err := s.Inspect(uint32(h))
	require.NoError(t, err)
	require.True(t, info.Encrypted)
	require.Equal(t, uint32(len(data)), info.Length)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, bytes.Contains(raw, []byte("plaintext!plaintext!")))
}

func TestEncryptedReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.TestStoreName)
	data := testutil.Pattern(9000, 3)

	s, err := store.Open(path, encrypted("secret"))
	require.NoError(t, err)
	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, data))
	require.NoError(t, s.Close())

	t.Run("same password", func(t *testing.T) {
		s := testutil.OpenTestStore(t, path, encrypted("secret"))
		got, err := s.ReadAll(h)
		require.NoError(t, err)
		require.Equal(t, data, got)
		require.NoError(t, s.Close())
	})

	t.Run("no password", func(t *testing.T) {
		s := testutil.OpenTestStore(t, path, nil)
		_, err := s.ReadAll(h)
		require.ErrorIs(t, err, types.ErrSecurity)

		length, err := s.Length(h)
		require.NoError(t, err)
		require.Equal(t, uint32(len(data)), length)
		require.NoError(t, s.Close())
	})

	t.Run("wrong password", func(t *testing.T) {
		s := testutil.OpenTestStore(t, path, encrypted("not-secret"))
		got, err := s.ReadAll(h)
		if err == nil {
			require.NotEqual(t, data, got)
		}
		require.NoError(t, s.Close())
	})
}

func TestEncryptionNeedsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.TestStoreName)
	_, err := store.Open(path, &store.Options{UseEncryption: true})
	require.ErrorIs(t, err, types.ErrSecurity)
}

func TestOpenZeroesPassword(t *testing.T) {
	pwd := []byte("secret")
	testutil.SetupTestStore(t, &store.Options{UseEncryption: true, Password: pwd})
	require.Equal(t, make([]byte, len(pwd)), pwd)
}

func TestPlainStoreRewritesEncryptedChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.TestStoreName)

	s, err := store.Open(path, encrypted("secret"))
	require.NoError(t, err)
	h, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Write(h, testutil.Pattern(5000, 1)))
	require.NoError(t, s.Close())

	plain := testutil.OpenTestStore(t, path, nil)
	require.NoError(t, plain.Write(h, []byte("now in the clear")))
	got, err := plain.ReadAll(h)
	require.NoError(t, err)
	require.Equal(t, []byte("now in the clear"), got)

	info, err := plain.Inspect(uint32(h))
	require.NoError(t, err)
	require.False(t, info.Encrypted)
}
