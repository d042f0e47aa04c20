// Package dirty tracks modified byte ranges of a page store file and
// flushes them to stable storage.
//
// The tracker keeps a list of dirty byte ranges, coalesces them into
// page-aligned ranges, and flushes them using platform-specific system
// calls (sync_file_range on Linux, FlushFileBuffers on Windows) followed by
// a data sync of the file descriptor.
package dirty

import (
	"context"
	"os"
	"sort"
	"sync"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the flush granularity (4KB).
	standardPageSize = 4096

	// compactThreshold is the raw range count at which Add coalesces the
	// pending list in place.
	compactThreshold = 4 * defaultRangeCapacity
)

// FlushMode controls durability guarantees of a flush.
type FlushMode int

const (
	// FlushAuto syncs dirty data ranges, then fdatasync()s the file.
	FlushAuto FlushMode = iota

	// FlushDataOnly only starts and waits for writeback of dirty data ranges.
	// The caller is responsible for a metadata sync later.
	FlushDataOnly

	// FlushFull is FlushAuto plus F_FULLFSYNC on macOS, which also drains
	// the drive's write cache.
	FlushFull
)

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// Tracker accumulates dirty ranges and flushes them efficiently.
// It is safe for concurrent use.
type Tracker struct {
	f        *os.File
	mu       sync.Mutex
	ranges   []Range // Dirty data ranges (coalesced at flush time)
	pageSize int64
	limit    int // compact when len(ranges) reaches this
}

// NewTracker creates a dirty tracker for f.
func NewTracker(f *os.File) *Tracker {
	return &Tracker{
		f:        f,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
		limit:    compactThreshold,
	}
}

// Add records a dirty range. The range is page-aligned and merged with
// other ranges at flush time, or earlier once the pending list grows past
// its limit, so repeated writes to the same pages keep the list bounded by
// the number of distinct dirty runs.
func (t *Tracker) Add(off int64, length int) {
	t.mu.Lock()
	t.ranges = append(t.ranges, Range{Off: off, Len: int64(length)})
	if len(t.ranges) >= t.limit {
		t.compact()
	}
	t.mu.Unlock()
}

// compact coalesces the pending ranges in place. The limit doubles past
// the compacted size so disjoint runs do not trigger a compaction per Add.
// Callers hold t.mu.
func (t *Tracker) compact() {
	t.ranges = append(t.ranges[:0], coalesce(t.ranges, t.pageSize)...)
	t.limit = max(compactThreshold, 2*len(t.ranges))
}

// Pending reports whether any range is waiting to be flushed.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ranges) > 0
}

// take swaps out the pending ranges so writers can keep adding while a
// flush runs.
func (t *Tracker) take() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ranges) == 0 {
		return nil
	}
	out := coalesce(t.ranges, t.pageSize)
	t.ranges = t.ranges[:0]
	t.limit = compactThreshold
	return out
}

// restore puts ranges back after a failed flush.
func (t *Tracker) restore(rs []Range) {
	t.mu.Lock()
	t.ranges = append(t.ranges, rs...)
	t.mu.Unlock()
}

// FlushDataOnly writes back all dirty data ranges.
//
// The context is checked between ranges. If cancelled midway, the ranges
// not yet flushed stay pending.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	ranges := t.take()
	if len(ranges) == 0 {
		return nil
	}
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			t.restore(ranges[i:])
			return err
		}
		if err := syncRange(t.f, r.Off, r.Len); err != nil {
			t.restore(ranges[i:])
			return err
		}
	}
	return nil
}

// FlushMeta syncs the file descriptor according to mode. FlushDataOnly
// makes it a no-op.
func (t *Tracker) FlushMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == FlushDataOnly {
		return nil
	}
	return fdatasync(t.f, mode == FlushFull)
}

// Flush writes back dirty ranges and then syncs the descriptor.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if err := t.FlushDataOnly(ctx); err != nil {
		return err
	}
	return t.FlushMeta(ctx, mode)
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.ranges = t.ranges[:0]
	t.limit = compactThreshold
	t.mu.Unlock()
}

// DebugRanges returns a copy of the pending ranges as recorded, coalesced
// only if the list has been compacted since the last flush.
func (t *Tracker) DebugRanges() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// DebugCoalescedRanges returns the page-aligned, sorted and merged ranges
// a flush would write back.
func (t *Tracker) DebugCoalescedRanges() []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return coalesce(t.ranges, t.pageSize)
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ranges.
func coalesce(ranges []Range, pageSize int64) []Range {
	if len(ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(ranges))
	for i, r := range ranges {
		start := (r.Off / pageSize) * pageSize
		end := r.Off + r.Len
		if end%pageSize != 0 {
			end = ((end / pageSize) + 1) * pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
