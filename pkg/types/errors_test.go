package types

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Errorf(ErrKindInvalidHandle, "page %d is free", 7)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.NotErrorIs(t, err, ErrOutOfRange)
	require.Equal(t, "page 7 is free", err.Error())

	wrapped := fmt.Errorf("store: free: %w", err)
	require.ErrorIs(t, wrapped, ErrInvalidHandle)

	var typed *Error
	require.ErrorAs(t, wrapped, &typed)
	require.Equal(t, ErrKindInvalidHandle, typed.Kind)
}

func TestErrorfKeepsCause(t *testing.T) {
	err := Errorf(ErrKindCorrupt, "read header: %w", io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, ErrCorrupt)
	require.Contains(t, err.Error(), "unexpected EOF")
}

func TestErrorMessageForms(t *testing.T) {
	require.Equal(t, "checksum mismatch", ErrChecksum.Error())

	e := &Error{Kind: ErrKindSecurity, Msg: "decrypt", Err: errors.New("bad padding")}
	require.Equal(t, "decrypt: bad padding", e.Error())

	var nilErr *Error
	require.Equal(t, "<nil>", nilErr.Error())
}

func TestErrKindString(t *testing.T) {
	require.Equal(t, "invalid-handle", ErrKindInvalidHandle.String())
	require.Equal(t, "capacity", ErrKindCapacity.String())
	require.Equal(t, "ErrKind(99)", ErrKind(99).String())
}

func TestHandleValid(t *testing.T) {
	require.False(t, InvalidHandle.Valid())
	require.True(t, Handle(1).Valid())
}
