package dirty

import "context"

// DirtyTracker is the minimal interface for recording modified byte ranges.
//
// Components that write pages but do not decide when to flush depend on
// this.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	Add(off int64, length int)
}

// FlushableTracker extends DirtyTracker with flushing. The page file holds
// its tracker through this interface.
type FlushableTracker interface {
	DirtyTracker

	// Flush writes back dirty ranges and syncs according to mode.
	Flush(ctx context.Context, mode FlushMode) error
}

var _ FlushableTracker = (*Tracker)(nil)
