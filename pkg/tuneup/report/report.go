// Package report owns all user-facing output of a cleaning run: the live
// progress line, the end-of-run summary, the deletion preview, the
// confirmation gate, and the deletion commit with its per-file tally.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tuneup/pkg/tuneup/engine"
	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/manifest"
	"github.com/jamesainslie/tuneup/pkg/tuneup/prune"
	"github.com/jamesainslie/tuneup/pkg/tuneup/trash"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
	"github.com/jamesainslie/tuneup/pkg/tuneup/walker"
)

var logger = logging.Get("report")

// previewLimit caps the number of paths shown in the deletion preview;
// the full list always goes to the manifest.
const previewLimit = 50

// StatusLine renders a single-line progress display from a walk progress
// update. The survey totals, when non-zero, add a percentage.
func StatusLine(p walker.Progress, survey walker.SurveyResult) string {
	c := p.Counters
	parts := []string{
		LabelStyle.Render("scanned") + " " + ValueStyle.Render(fmt.Sprintf("%d", c.FilesScanned)),
		LabelStyle.Render("read") + " " + SizeStyle.Render(types.FormatSize(c.BytesScanned)),
	}
	if survey.AudioFiles > 0 {
		done := c.FilesScanned + c.SmallFiles
		pct := float64(done) / float64(survey.AudioFiles) * 100
		if pct > 100 {
			pct = 100
		}
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("%.0f%%", pct)))
	}
	if c.Errors > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d errors", c.Errors)))
	}
	parts = append(parts, MutedStyle.Render(shortenPath(p.CurrentPath, 48)))
	return strings.Join(parts, "  ")
}

// shortenPath truncates long paths from the left, keeping the tail.
func shortenPath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "…" + path[len(path)-max+1:]
}

// Summary writes the styled end-of-run summary.
func Summary(w io.Writer, result *engine.Result) {
	c := result.Run.Counters.Snapshot()

	var lines []string
	title := TitleStyle.Render("tuneup")
	if result.DryRun {
		title += " " + WarningStyle.Render("(dry run)")
	}
	lines = append(lines, title+"  "+MutedStyle.Render(result.Root))
	lines = append(lines, fmt.Sprintf("%s %s in %s, %s read",
		LabelStyle.Render("Scanned:"),
		ValueStyle.Render(fmt.Sprintf("%d files / %d dirs", c.FilesScanned, c.DirsScanned)),
		formatDuration(c.Elapsed),
		SizeStyle.Render(types.FormatSize(c.BytesScanned))))
	lines = append(lines, fmt.Sprintf("%s %s duplicate, %s undersized, %s renamed, %s pruned",
		LabelStyle.Render("Found:"),
		DangerStyle.Render(fmt.Sprintf("%d", c.Duplicates)),
		DangerStyle.Render(fmt.Sprintf("%d", c.SmallFiles)),
		ValueStyle.Render(fmt.Sprintf("%d files / %d dirs", filesRenamed(result), dirsRenamed(result))),
		ValueStyle.Render(fmt.Sprintf("%d dirs", prunedDirs(result)))))

	if c.Errors > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("%d paths skipped due to errors (see log)", c.Errors)))
	}

	fmt.Fprintln(w, HeaderBox.Render(strings.Join(lines, "\n")))
}

// In dry-run mode the counters never advance past planning, so the summary
// falls back to the planned op counts.
func filesRenamed(r *engine.Result) int64 {
	if r.DryRun {
		return int64(len(r.FileRenames))
	}
	return r.Run.Counters.FilesRenamed.Load()
}

func dirsRenamed(r *engine.Result) int64 {
	if r.DryRun {
		return int64(len(r.DirRenames))
	}
	return r.Run.Counters.DirsRenamed.Load()
}

func prunedDirs(r *engine.Result) int64 {
	if r.DryRun {
		return 0
	}
	return r.Run.Counters.DirsPruned.Load()
}

// Preview writes the deletion candidates, largest groups of detail elided
// past previewLimit.
func Preview(w io.Writer, result *engine.Result) {
	paths := result.Run.Deletions.Paths()
	if len(paths) == 0 {
		fmt.Fprintln(w, SuccessStyle.Render("Nothing to delete."))
		return
	}

	var total int64
	sizes := make(map[string]int64, len(paths))
	for _, p := range paths {
		if info, err := os.Lstat(p); err == nil {
			sizes[p] = info.Size()
			total += info.Size()
		}
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%d files slated for deletion (%s):",
		len(paths), types.FormatSize(total))))

	for i, p := range paths {
		if i == previewLimit {
			fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  … and %d more", len(paths)-previewLimit)))
			break
		}
		fmt.Fprintf(w, "  %s %s\n",
			DangerStyle.Render(p),
			MutedStyle.Render(types.FormatSize(sizes[p])))
	}
}

// Confirm reads a single line from r and reports whether the user
// affirmed. Only "y" or "yes" (case-insensitive) confirm; anything else,
// including EOF, cancels.
func Confirm(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, WarningStyle.Render("Delete these files? [y/N] "))

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// CommitFailure records a deletion that could not be performed.
type CommitFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CommitResult is the per-file tally of a committed deletion.
type CommitResult struct {
	Deleted    int             `json:"deleted"`
	Failed     int             `json:"failed"`
	BytesFreed int64           `json:"bytes_freed"`
	Failures   []CommitFailure `json:"failures,omitempty"`

	// Pruned are the directories left empty by the deletions and removed
	// afterward.
	Pruned []string `json:"pruned,omitempty"`
}

// Commit performs the actual removal of the deletion set. It must only run
// after both rename passes, so every path in the set is final. Each file is
// removed individually; failures are tallied and do not stop the commit.
// Deleting the set can empty directories the engine's prune pass had to
// leave in place, so a second prune runs over the tree afterward. When m is
// non-nil the outcome is recorded as a manifest entry.
func Commit(result *engine.Result, useTrash bool, m *manifest.Manifest) CommitResult {
	var cr CommitResult
	var records []manifest.FileRecord

	for _, path := range result.Run.Deletions.Paths() {
		var size int64
		if info, err := os.Lstat(path); err == nil {
			size = info.Size()
		}
		reason := result.Run.Deletions.Reason(path)

		if err := trash.Remove(path, useTrash); err != nil {
			cr.Failed++
			cr.Failures = append(cr.Failures, CommitFailure{Path: path, Error: err.Error()})
			logger.Warn("deletion failed", "path", path, "error", err)
			continue
		}

		cr.Deleted++
		cr.BytesFreed += size
		records = append(records, manifest.FileRecord{
			Path:      path,
			Size:      size,
			Reason:    reason,
			DeletedAt: time.Now().UTC(),
		})
		logger.Info("deleted", "path", path, "reason", reason)
	}

	if cr.Deleted > 0 && !result.DryRun {
		cr.Pruned = prune.Run(result.Root, result.Run)
	}

	if m != nil && len(records) > 0 {
		if err := m.EnsureDir(); err != nil {
			logger.Warn("cannot create manifest directory", "error", err)
		} else if _, err := m.LogDelete(result.Root, records); err != nil {
			logger.Warn("cannot write deletion manifest", "error", err)
		}
	}

	return cr
}

// CommitSummary writes the post-commit tally.
func CommitSummary(w io.Writer, cr CommitResult) {
	fmt.Fprintf(w, "%s %s deleted, %s freed",
		SuccessStyle.Render("Done:"),
		ValueStyle.Render(fmt.Sprintf("%d files", cr.Deleted)),
		SizeStyle.Render(humanize.IBytes(uint64(cr.BytesFreed))))
	if len(cr.Pruned) > 0 {
		fmt.Fprintf(w, ", %s", ValueStyle.Render(fmt.Sprintf("%d dirs pruned", len(cr.Pruned))))
	}
	if cr.Failed > 0 {
		fmt.Fprintf(w, ", %s", DangerStyle.Render(fmt.Sprintf("%d failed", cr.Failed)))
	}
	fmt.Fprintln(w)

	for _, f := range cr.Failures {
		fmt.Fprintf(w, "  %s %s: %s\n", DangerStyle.Render("!"), f.Path, f.Error)
	}
}

// jsonReport is the machine-readable run report.
type jsonReport struct {
	Root      string             `json:"root"`
	Counters  interface{}        `json:"counters"`
	Deletions []string           `json:"deletions"`
	Result    *engine.Result     `json:"result"`
	Commit    *CommitResult      `json:"commit,omitempty"`
	Errors    []walker.ScanError `json:"errors,omitempty"`
}

// WriteJSON writes the complete run report as JSON for scripting.
func WriteJSON(w io.Writer, result *engine.Result, commit *CommitResult) error {
	rep := jsonReport{
		Root:      result.Root,
		Counters:  result.Run.Counters.Snapshot(),
		Deletions: result.Run.Deletions.Paths(),
		Result:    result,
		Commit:    commit,
		Errors:    result.WalkErrors,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// formatDuration renders a duration compactly for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
