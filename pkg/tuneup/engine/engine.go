// Package engine orchestrates the phases of a cleaning run. The walker
// runs to completion first (the join point for all hashing), then the
// duplicate resolver, then the file rename pass, then the directory rename
// pass, then pruning. Deletion of the collected set is not part of the
// engine; it is gated on explicit confirmation and committed by the
// reporter, which prunes once more for directories the deletions empty.
package engine

import (
	"context"
	"fmt"

	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/prune"
	"github.com/jamesainslie/tuneup/pkg/tuneup/rename"
	"github.com/jamesainslie/tuneup/pkg/tuneup/resolver"
	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
	"github.com/jamesainslie/tuneup/pkg/tuneup/walker"
)

var logger = logging.Get("engine")

// Options configures a cleaning run.
type Options struct {
	// Root is the directory tree to clean.
	Root string

	// MinSize is the minimum audio file size; smaller files go straight to
	// the deletion set.
	MinSize int64

	// Exclude contains glob patterns for paths to skip.
	Exclude []string

	// DirWorkers and FileWorkers bound walk parallelism.
	DirWorkers  int
	FileWorkers int

	// DryRun plans renames and pruning without touching the filesystem.
	DryRun bool

	// OnProgress receives walk progress updates.
	OnProgress func(walker.Progress)
}

// Result holds everything a reporter needs after a run: the shared state
// (counters, deletion set), the resolved duplicate groups, and the rename
// and prune outcomes.
type Result struct {
	// Root is the resolved absolute root that was cleaned.
	Root string `json:"root"`

	// Run is the shared state of the run.
	Run *state.Run `json:"-"`

	// Groups are the resolved duplicate sets.
	Groups []resolver.Group `json:"groups,omitempty"`

	// FileRenames and DirRenames are the applied operations, or the
	// planned ones when DryRun is set.
	FileRenames []types.RenameOp `json:"file_renames,omitempty"`
	DirRenames  []types.RenameOp `json:"dir_renames,omitempty"`

	// RenameFailures are operations that could not be applied.
	RenameFailures []rename.Failure `json:"rename_failures,omitempty"`

	// Pruned are the empty directories removed.
	Pruned []string `json:"pruned,omitempty"`

	// WalkErrors are the per-path failures collected during the walk.
	WalkErrors []walker.ScanError `json:"walk_errors,omitempty"`

	// DryRun records whether the run mutated anything.
	DryRun bool `json:"dry_run"`
}

// Clean runs all phases over the tree rooted at opts.Root. The only fatal
// error is an invalid root; per-item failures are collected in the result.
func Clean(ctx context.Context, opts Options) (*Result, error) {
	run := state.NewRun()

	w := walker.New(walker.Options{
		Root:        opts.Root,
		MinSize:     opts.MinSize,
		Exclude:     opts.Exclude,
		DirWorkers:  opts.DirWorkers,
		FileWorkers: opts.FileWorkers,
		OnProgress:  opts.OnProgress,
	}, run)

	if err := w.Walk(ctx); err != nil {
		return nil, fmt.Errorf("walking %s: %w", opts.Root, err)
	}

	result := &Result{
		Root:   w.Root(),
		Run:    run,
		DryRun: opts.DryRun,
	}

	// All hashing is complete; resolution is a pure pass over the index.
	result.Groups = resolver.Resolve(run)
	logger.Info("duplicates resolved",
		"groups", len(result.Groups),
		"marked", run.Counters.Duplicates.Load())

	if opts.DryRun {
		result.FileRenames = run.FileRenames.Drain()
		result.DirRenames = run.DirRenames.Drain()
		result.WalkErrors = w.Errors()
		return result, nil
	}

	ex := rename.New(run)
	result.FileRenames = ex.Files()
	result.DirRenames = ex.Dirs()
	result.RenameFailures = ex.Failures()

	// Renames are done; the tree is stable enough to prune.
	result.Pruned = prune.Run(result.Root, run)

	result.WalkErrors = w.Errors()
	return result, nil
}
