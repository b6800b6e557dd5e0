// Package rename executes the queued rename operations in two strictly
// sequential passes: files first, then directories ordered deepest-first.
// Directory renames change path prefixes that file renames resolved
// against, so the file pass must fully complete before any directory moves.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/normalize"
	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

var logger = logging.Get("rename")

// Failure records a rename that could not be applied. Failures are
// non-fatal; the executor continues with the next operation.
type Failure struct {
	Op    types.RenameOp `json:"op"`
	Error string         `json:"error"`
}

// Executor applies the rename queues of a run. Create one per run and call
// Files, then Dirs, exactly once each.
type Executor struct {
	run      *state.Run
	failures []Failure
}

// New creates an Executor over the given run state.
func New(run *state.Run) *Executor {
	return &Executor{run: run}
}

// Failures returns the operations that could not be applied.
func (e *Executor) Failures() []Failure {
	return e.failures
}

// Files applies every queued file rename. If the destination already exists
// as a distinct file, a collision-free alternative with a numeric suffix is
// generated; nothing is ever overwritten. Applied renames are reflected in
// the deletion set so duplicate paths stay valid.
func (e *Executor) Files() []types.RenameOp {
	ops := e.run.FileRenames.Drain()
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].OldPath < ops[j].OldPath
	})

	applied := make([]types.RenameOp, 0, len(ops))
	for _, op := range ops {
		target, err := e.resolveTarget(op.OldPath, op.NewPath)
		if err != nil {
			e.fail(op, err)
			continue
		}

		if err := os.Rename(op.OldPath, target); err != nil {
			e.fail(op, err)
			continue
		}

		e.run.Counters.FilesRenamed.Add(1)
		e.run.Deletions.Rewrite(op.OldPath, target)
		op.NewPath = target
		applied = append(applied, op)
		logger.Debug("renamed file", "from", op.OldPath, "to", target)
	}
	return applied
}

// resolveTarget returns the destination to use for a file rename. When the
// requested destination exists and is not the source itself (case-only
// renames on case-insensitive filesystems stat as existing), a numbered
// alternative is generated.
func (e *Executor) resolveTarget(oldPath, newPath string) (string, error) {
	info, err := os.Lstat(newPath)
	if err != nil {
		if os.IsNotExist(err) {
			return newPath, nil
		}
		return "", err
	}

	if oldInfo, err := os.Lstat(oldPath); err == nil && os.SameFile(oldInfo, info) {
		return newPath, nil
	}

	return uniqueTarget(newPath)
}

// uniqueTarget appends _1, _2, ... to a collision-stripped stem until an
// unused path is found.
func uniqueTarget(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := normalize.CollisionStem(strings.TrimSuffix(base, ext))

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}
}

// Dirs applies every queued directory rename, deepest paths first so
// descendants move before their ancestors and stale prefixes are never
// referenced. Existing destinations are skipped, never overwritten.
func (e *Executor) Dirs() []types.RenameOp {
	ops := e.run.DirRenames.Drain()
	sort.Slice(ops, func(i, j int) bool {
		if len(ops[i].OldPath) != len(ops[j].OldPath) {
			return len(ops[i].OldPath) > len(ops[j].OldPath)
		}
		return ops[i].OldPath < ops[j].OldPath
	})

	applied := make([]types.RenameOp, 0, len(ops))
	for _, op := range ops {
		info, err := os.Lstat(op.NewPath)
		if err == nil {
			oldInfo, oldErr := os.Lstat(op.OldPath)
			if oldErr != nil || !os.SameFile(oldInfo, info) {
				logger.Debug("skipping directory rename, target exists",
					"from", op.OldPath, "to", op.NewPath)
				continue
			}
		} else if !os.IsNotExist(err) {
			e.fail(op, err)
			continue
		}

		if err := os.Rename(op.OldPath, op.NewPath); err != nil {
			e.fail(op, err)
			continue
		}

		e.run.Counters.DirsRenamed.Add(1)
		e.run.Deletions.RewritePrefix(op.OldPath, op.NewPath)
		applied = append(applied, op)
		logger.Debug("renamed directory", "from", op.OldPath, "to", op.NewPath)
	}
	return applied
}

func (e *Executor) fail(op types.RenameOp, err error) {
	e.run.Counters.Errors.Add(1)
	e.failures = append(e.failures, Failure{Op: op, Error: err.Error()})
	logger.Warn("rename failed", "from", op.OldPath, "to", op.NewPath, "error", err)
}
