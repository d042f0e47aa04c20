package format

import "errors"

var (
	// ErrSignatureMismatch indicates the file header did not carry the expected magic.
	ErrSignatureMismatch = errors.New("format: magic mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrUnsupported indicates a newer version or a different page geometry.
	ErrUnsupported = errors.New("format: unsupported version or geometry")
)
