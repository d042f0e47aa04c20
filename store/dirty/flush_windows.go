//go:build windows

package dirty

import (
	"os"

	"golang.org/x/sys/windows"
)

// syncRange is a no-op on Windows; FlushFileBuffers in fdatasync writes
// back the whole file.
func syncRange(*os.File, int64, int64) error { return nil }

// fdatasync flushes file data and metadata with FlushFileBuffers.
// The fullfsync parameter is ignored on Windows.
func fdatasync(f *os.File, _ bool) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
