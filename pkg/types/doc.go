// Package types defines the small, dependency-free vocabulary shared by the
// page store packages and their callers: the Handle identifier and the typed
// errors every operation returns.
//
// Design goals:
//   - Small, copyable handles (a uint32 page index) instead of object graphs.
//   - Paranoid bounds checking; never panic on malformed input.
//   - Typed errors with stable categories (corrupt/checksum/invalid-handle/...).
//
// This package has no dependencies beyond the standard library.
package types
