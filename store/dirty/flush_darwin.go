//go:build darwin

package dirty

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncRange is a no-op on macOS; there is no ranged writeback call, so the
// descriptor sync in fdatasync covers every range.
func syncRange(*os.File, int64, int64) error { return nil }

// fdatasync performs a file descriptor sync. With fullfsync, F_FULLFSYNC
// also flushes the drive cache.
func fdatasync(f *os.File, fullfsync bool) error {
	if fullfsync {
		_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(int(f.Fd()))
}
