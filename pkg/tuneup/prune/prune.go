// Package prune removes directories left empty after cleanup. Children are
// fully processed before their parent is evaluated, so a directory whose
// only contents were just-pruned subdirectories is itself pruned in the
// same pass. Runs strictly after both rename passes so emptied directories
// reflect final file locations.
package prune

import (
	"os"
	"path/filepath"

	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
)

var logger = logging.Get("prune")

// Run prunes empty directories below root, post-order. The root itself is
// never removed. Failures on individual directories are logged and do not
// halt pruning of siblings or ancestors. Returns the removed paths.
func Run(root string, run *state.Run) []string {
	var removed []string
	pruneTree(root, run, true, &removed)
	return removed
}

// pruneTree recurses into dir's children first, then removes dir if it is
// empty (unless it is the root). Returns true when dir no longer exists.
func pruneTree(dir string, run *state.Run, isRoot bool, removed *[]string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		run.Counters.Errors.Add(1)
		logger.Warn("cannot read directory during prune", "path", dir, "error", err)
		return false
	}

	remaining := len(entries)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if pruneTree(filepath.Join(dir, entry.Name()), run, false, removed) {
			remaining--
		}
	}

	if isRoot || remaining > 0 {
		return false
	}

	// Remove, not RemoveAll: a file that appeared concurrently makes this
	// fail, which is the safe outcome.
	if err := os.Remove(dir); err != nil {
		run.Counters.Errors.Add(1)
		logger.Warn("cannot remove empty directory", "path", dir, "error", err)
		return false
	}

	run.Counters.DirsPruned.Add(1)
	*removed = append(*removed, dir)
	logger.Debug("pruned empty directory", "path", dir)
	return true
}
