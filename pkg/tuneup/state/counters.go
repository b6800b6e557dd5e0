package state

import (
	"sync/atomic"
	"time"
)

// Counters are the process-wide run counters. All fields are atomic so
// worker goroutines can write and a concurrently polling reporter can read
// without locks. Values are monotonically increasing and never reset;
// stale-but-monotonic reads are acceptable for display.
type Counters struct {
	DirsScanned  atomic.Int64
	FilesScanned atomic.Int64
	BytesScanned atomic.Int64
	SmallFiles   atomic.Int64
	Duplicates   atomic.Int64
	FilesRenamed atomic.Int64
	DirsRenamed  atomic.Int64
	DirsPruned   atomic.Int64
	Errors       atomic.Int64

	startTime time.Time
}

func newCounters(start time.Time) *Counters {
	return &Counters{startTime: start}
}

// Elapsed returns the wall time since the run started.
func (c *Counters) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Snapshot is a point-in-time copy of the counters for reporting.
type Snapshot struct {
	DirsScanned  int64         `json:"dirs_scanned"`
	FilesScanned int64         `json:"files_scanned"`
	BytesScanned int64         `json:"bytes_scanned"`
	SmallFiles   int64         `json:"small_files"`
	Duplicates   int64         `json:"duplicates"`
	FilesRenamed int64         `json:"files_renamed"`
	DirsRenamed  int64         `json:"dirs_renamed"`
	DirsPruned   int64         `json:"dirs_pruned"`
	Errors       int64         `json:"errors"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Snapshot reads all counters. Reads are individually atomic; the snapshot
// as a whole may be slightly torn while workers are still running, which is
// fine for progress display.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		DirsScanned:  c.DirsScanned.Load(),
		FilesScanned: c.FilesScanned.Load(),
		BytesScanned: c.BytesScanned.Load(),
		SmallFiles:   c.SmallFiles.Load(),
		Duplicates:   c.Duplicates.Load(),
		FilesRenamed: c.FilesRenamed.Load(),
		DirsRenamed:  c.DirsRenamed.Load(),
		DirsPruned:   c.DirsPruned.Load(),
		Errors:       c.Errors.Load(),
		Elapsed:      c.Elapsed(),
	}
}
