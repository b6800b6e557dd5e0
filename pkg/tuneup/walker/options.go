// Package walker provides concurrent traversal of an audio library tree.
// It uses a bounded pool of directory workers, each fanning out bounded
// file-hashing work, with atomic counters for progress reporting. Results
// are aggregated into the shared run state: the digest index, the rename
// queues, and the deletion set.
package walker

import (
	"runtime"

	"github.com/jamesainslie/tuneup/pkg/tuneup/config"
	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
)

// Progress reports real-time walk progress.
type Progress struct {
	// Counters is a point-in-time snapshot of the run counters.
	Counters state.Snapshot `json:"counters"`

	// CurrentPath is the directory currently being processed.
	CurrentPath string `json:"current_path"`

	// WalkComplete indicates that traversal is finished.
	WalkComplete bool `json:"walk_complete,omitempty"`
}

// Options configures the walker behavior.
type Options struct {
	// Root is the starting directory for the walk.
	Root string

	// MinSize is the minimum audio file size in bytes. Files smaller than
	// this are marked for deletion directly and never hashed.
	MinSize int64

	// Exclude contains glob patterns for paths to skip during the walk.
	Exclude []string

	// DirWorkers is the number of concurrent directory workers.
	DirWorkers int

	// FileWorkers bounds the concurrent file hashing tasks per directory.
	FileWorkers int

	// OnProgress is called periodically with walk progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(Progress)
}

// DefaultOptions returns options with sensible defaults for most systems.
func DefaultOptions() Options {
	return Options{
		Root:        config.DefaultPath,
		Exclude:     config.DefaultExclusions,
		DirWorkers:  config.DefaultDirWorkers,
		FileWorkers: defaultFileWorkers(),
	}
}

// defaultFileWorkers sizes the file pool from available CPU concurrency.
func defaultFileWorkers() int {
	n := runtime.NumCPU()
	if n < config.DefaultFileWorkers {
		return config.DefaultFileWorkers
	}
	return n
}

// Validate checks the options and fills in defaults for invalid values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = config.DefaultPath
	}
	if o.DirWorkers < 1 {
		o.DirWorkers = config.DefaultDirWorkers
	}
	if o.FileWorkers < 1 {
		o.FileWorkers = defaultFileWorkers()
	}
	return nil
}
