//go:build linux

package dirty

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncRange starts writeback of one range and waits for it to complete.
func syncRange(f *os.File, off, n int64) error {
	return unix.SyncFileRange(int(f.Fd()), off, n,
		unix.SYNC_FILE_RANGE_WAIT_BEFORE|unix.SYNC_FILE_RANGE_WRITE|unix.SYNC_FILE_RANGE_WAIT_AFTER)
}

// fdatasync syncs file data and the metadata needed to read it back.
// The fullfsync parameter is ignored on Linux.
func fdatasync(f *os.File, _ bool) error {
	return unix.Fdatasync(int(f.Fd()))
}
