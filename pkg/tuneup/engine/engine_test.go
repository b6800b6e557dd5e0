package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
)

func write(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func contentBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// TestCleanDuplicates runs the full pipeline over a tree with one
// duplicate pair: the deeper copy survives, the shallow copy is slated,
// and both end up under their normalized names.
func TestCleanDuplicates(t *testing.T) {
	root := t.TempDir()
	song := contentBytes(40000)

	write(t, filepath.Join(root, "song.mp3"), song)
	write(t, filepath.Join(root, "subdir", "SONG.mp3"), song)

	result, err := Clean(context.Background(), Options{
		Root:        root,
		MinSize:     31968,
		DirWorkers:  2,
		FileWorkers: 2,
	})
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Survivor != filepath.Join(root, "subdir", "SONG.mp3") {
		t.Errorf("survivor = %s, want the deeper copy", g.Survivor)
	}

	// Both copies were renamed to canonical casing.
	if _, err := os.Stat(filepath.Join(root, "subdir", "Song.mp3")); err != nil {
		t.Errorf("survivor not renamed: %v", err)
	}

	// The loser is slated under its post-rename path.
	deletions := result.Run.Deletions.Paths()
	if len(deletions) != 1 {
		t.Fatalf("deletion set = %v, want exactly one entry", deletions)
	}
	if deletions[0] != filepath.Join(root, "Song.mp3") {
		t.Errorf("slated path = %s, want renamed shallow copy", deletions[0])
	}
	if got := result.Run.Deletions.Reason(deletions[0]); got != state.ReasonDuplicate {
		t.Errorf("reason = %q", got)
	}

	// Nothing was deleted by the engine itself.
	if _, err := os.Stat(deletions[0]); err != nil {
		t.Errorf("engine deleted a file before confirmation: %v", err)
	}
}

// TestCleanNormalizesUnique verifies a unique file with a messy name is
// renamed and nothing is slated.
func TestCleanNormalizesUnique(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "weird!!name.mp3"), contentBytes(40000))

	result, err := Clean(context.Background(), Options{
		Root:        root,
		MinSize:     31968,
		DirWorkers:  2,
		FileWorkers: 2,
	})
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "Weirdname.mp3")); err != nil {
		t.Errorf("expected Weirdname.mp3: %v", err)
	}
	if got := result.Run.Counters.FilesRenamed.Load(); got != 1 {
		t.Errorf("FilesRenamed = %d, want 1", got)
	}
	if got := result.Run.Counters.Duplicates.Load(); got != 0 {
		t.Errorf("Duplicates = %d, want 0", got)
	}
	if result.Run.Deletions.Len() != 0 {
		t.Errorf("deletion set = %v, want empty", result.Run.Deletions.Paths())
	}
}

// TestCleanUndersized verifies stub files are slated without being hashed
// or renamed.
func TestCleanUndersized(t *testing.T) {
	root := t.TempDir()
	stub := filepath.Join(root, "broken!!.mp3")
	write(t, stub, []byte("too small"))

	result, err := Clean(context.Background(), Options{
		Root:        root,
		MinSize:     31968,
		DirWorkers:  2,
		FileWorkers: 2,
	})
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	// Undersized files keep their original names; they are never queued
	// for rename.
	if !result.Run.Deletions.Contains(stub) {
		t.Errorf("stub not slated, set = %v", result.Run.Deletions.Paths())
	}
	if got := result.Run.Counters.SmallFiles.Load(); got != 1 {
		t.Errorf("SmallFiles = %d, want 1", got)
	}
	if len(result.FileRenames) != 0 {
		t.Errorf("unexpected renames: %v", result.FileRenames)
	}
}

// TestCleanDirRenameAndPrune verifies the directory pass and pruning run
// after file renames.
func TestCleanDirRenameAndPrune(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "my music", "track one.mp3"), contentBytes(40000))
	if err := os.MkdirAll(filepath.Join(root, "leftover", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := Clean(context.Background(), Options{
		Root:        root,
		MinSize:     31968,
		DirWorkers:  2,
		FileWorkers: 2,
	})
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "My Music", "Track One.mp3")); err != nil {
		t.Errorf("expected renamed dir and file: %v", err)
	}
	if len(result.Pruned) != 2 {
		t.Errorf("pruned = %v, want the two empty dirs", result.Pruned)
	}
	if _, err := os.Stat(filepath.Join(root, "leftover")); !os.IsNotExist(err) {
		t.Error("empty tree not pruned")
	}
}

// TestCleanDryRun verifies a dry run plans everything and touches nothing.
func TestCleanDryRun(t *testing.T) {
	root := t.TempDir()
	song := contentBytes(40000)
	write(t, filepath.Join(root, "song one!!.mp3"), song)
	write(t, filepath.Join(root, "deep", "copy.mp3"), song)

	result, err := Clean(context.Background(), Options{
		Root:        root,
		MinSize:     31968,
		DirWorkers:  2,
		FileWorkers: 2,
		DryRun:      true,
	})
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if !result.DryRun {
		t.Error("result not marked dry-run")
	}
	if len(result.FileRenames) == 0 {
		t.Error("dry run did not plan file renames")
	}
	if len(result.Groups) != 1 {
		t.Errorf("groups = %d, want 1", len(result.Groups))
	}

	// The tree is untouched.
	if _, err := os.Stat(filepath.Join(root, "song one!!.mp3")); err != nil {
		t.Errorf("dry run moved a file: %v", err)
	}
	if got := result.Run.Counters.FilesRenamed.Load(); got != 0 {
		t.Errorf("FilesRenamed = %d during dry run", got)
	}
}

// TestCleanInvalidRoot verifies the only fatal error.
func TestCleanInvalidRoot(t *testing.T) {
	_, err := Clean(context.Background(), Options{
		Root: filepath.Join(t.TempDir(), "missing"),
	})
	if err == nil {
		t.Error("expected error for missing root")
	}
}
