package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// TestDefaultOptions verifies default options are set correctly.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Root != "." {
		t.Errorf("expected Root='.', got %q", opts.Root)
	}
	if opts.DirWorkers != 4 {
		t.Errorf("expected DirWorkers=4, got %d", opts.DirWorkers)
	}
	if opts.FileWorkers < 8 {
		t.Errorf("expected FileWorkers>=8, got %d", opts.FileWorkers)
	}
}

// TestOptionsValidate verifies validation fills defaults for invalid values.
func TestOptionsValidate(t *testing.T) {
	opts := Options{DirWorkers: -1}
	if err := opts.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Root != "." {
		t.Errorf("Root = %q, want '.'", opts.Root)
	}
	if opts.DirWorkers != 4 {
		t.Errorf("DirWorkers = %d, want 4", opts.DirWorkers)
	}
	if opts.FileWorkers < 1 {
		t.Errorf("FileWorkers = %d, want >= 1", opts.FileWorkers)
	}
}

// writeFile creates a file with the given content, creating parents.
func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// createLibrary builds a small audio tree:
//
//	root/
//	  song!!.mp3        (duplicate content, needs rename)
//	  stub.mp3          (below minimum size)
//	  notes.txt         (not audio)
//	  my music/
//	    SONG.mp3        (duplicate content)
//	  .git/
//	    hidden.mp3      (excluded)
func createLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	content := make([]byte, 200)
	for i := range content {
		content[i] = byte(i)
	}

	writeFile(t, filepath.Join(root, "song!!.mp3"), content)
	writeFile(t, filepath.Join(root, "stub.mp3"), []byte("tiny"))
	writeFile(t, filepath.Join(root, "notes.txt"), content)
	writeFile(t, filepath.Join(root, "my music", "SONG.mp3"), content)
	writeFile(t, filepath.Join(root, ".git", "hidden.mp3"), content)

	return root
}

// TestWalk verifies hashing, size screening, rename queueing, and
// exclusions over a real tree.
func TestWalk(t *testing.T) {
	root := createLibrary(t)
	run := state.NewRun()

	w := New(Options{
		Root:        root,
		MinSize:     100,
		Exclude:     []string{".git"},
		DirWorkers:  2,
		FileWorkers: 2,
	}, run)

	if err := w.Walk(context.Background()); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if got := run.Counters.FilesScanned.Load(); got != 2 {
		t.Errorf("FilesScanned = %d, want 2", got)
	}
	if got := run.Counters.SmallFiles.Load(); got != 1 {
		t.Errorf("SmallFiles = %d, want 1", got)
	}

	// Both hashed files share content, so one digest with two paths.
	groups := run.Index.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 digest group, got %d", len(groups))
	}
	for _, paths := range groups {
		if len(paths) != 2 {
			t.Errorf("expected 2 paths in group, got %v", paths)
		}
	}

	// The stub is slated for deletion, not hashed.
	stub := filepath.Join(root, "stub.mp3")
	if !run.Deletions.Contains(stub) {
		t.Error("undersized file not in deletion set")
	}
	if got := run.Deletions.Reason(stub); got != state.ReasonUndersized {
		t.Errorf("stub reason = %q", got)
	}

	// Both audio files need renaming; the directory needs casing.
	fileOps := run.FileRenames.Drain()
	if len(fileOps) != 2 {
		t.Errorf("expected 2 file renames, got %v", fileOps)
	}
	for _, op := range fileOps {
		if op.Kind != types.RenameFile {
			t.Errorf("file op has kind %s", op.Kind)
		}
		if filepath.Base(op.NewPath) != "Song.mp3" {
			t.Errorf("unexpected rename target %s", op.NewPath)
		}
	}

	dirOps := run.DirRenames.Drain()
	if len(dirOps) != 1 {
		t.Fatalf("expected 1 dir rename, got %v", dirOps)
	}
	if filepath.Base(dirOps[0].NewPath) != "My Music" {
		t.Errorf("dir rename target = %s", dirOps[0].NewPath)
	}

	if len(w.Errors()) != 0 {
		t.Errorf("unexpected walk errors: %v", w.Errors())
	}
}

// TestWalkInvalidRoot verifies a bad root is the only fatal error.
func TestWalkInvalidRoot(t *testing.T) {
	run := state.NewRun()
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing")}, run)

	if err := w.Walk(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}

// TestWalkUnreadableSubtree verifies a directory read failure skips the
// branch without failing the walk.
func TestWalkUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission bits have no effect")
	}

	root := t.TempDir()
	content := make([]byte, 200)
	writeFile(t, filepath.Join(root, "ok.mp3"), content)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "secret.mp3"), content)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	run := state.NewRun()
	w := New(Options{Root: root, MinSize: 100, DirWorkers: 2, FileWorkers: 2}, run)

	if err := w.Walk(context.Background()); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if got := run.Counters.FilesScanned.Load(); got != 1 {
		t.Errorf("FilesScanned = %d, want 1", got)
	}
	if len(w.Errors()) != 1 {
		t.Errorf("expected 1 walk error, got %v", w.Errors())
	}
}

// TestWalkProgress verifies the progress callback fires and reports
// completion.
func TestWalkProgress(t *testing.T) {
	root := createLibrary(t)
	run := state.NewRun()

	var calls atomic.Int64
	var sawComplete atomic.Bool

	w := New(Options{
		Root:        root,
		MinSize:     100,
		DirWorkers:  2,
		FileWorkers: 2,
		OnProgress: func(p Progress) {
			calls.Add(1)
			if p.WalkComplete {
				sawComplete.Store(true)
			}
		},
	}, run)

	if err := w.Walk(context.Background()); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if calls.Load() == 0 {
		t.Error("progress callback never fired")
	}
	if !sawComplete.Load() {
		t.Error("completion progress not reported")
	}
}

// TestWalkCancellation verifies a cancelled context surfaces as the walk
// error.
func TestWalkCancellation(t *testing.T) {
	root := createLibrary(t)
	run := state.NewRun()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(Options{Root: root, MinSize: 100, DirWorkers: 2, FileWorkers: 2}, run)
	if err := w.Walk(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestSurvey verifies the pre-walk count of audio files and bytes.
func TestSurvey(t *testing.T) {
	root := createLibrary(t)

	res, err := Survey(context.Background(), root, []string{".git"})
	if err != nil {
		t.Fatalf("Survey failed: %v", err)
	}

	// song!!.mp3, stub.mp3, SONG.mp3; hidden.mp3 is excluded, notes.txt
	// is not audio.
	if res.AudioFiles != 3 {
		t.Errorf("AudioFiles = %d, want 3", res.AudioFiles)
	}
	if res.TotalBytes != 200+4+200 {
		t.Errorf("TotalBytes = %d, want 404", res.TotalBytes)
	}
}

// TestWalkBroadTree covers a root with thousands of pending subdirectories
// on a single worker: the worker keeps producing while nothing else
// consumes, so the queue must absorb the whole fan-out without blocking.
func TestWalkBroadTree(t *testing.T) {
	root := t.TempDir()

	const dirs = 4200
	for i := 0; i < dirs; i++ {
		if err := os.Mkdir(filepath.Join(root, fmt.Sprintf("album%05d", i)), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	run := state.NewRun()
	w := New(Options{Root: root, MinSize: 100, DirWorkers: 1, FileWorkers: 2}, run)

	walkErr := make(chan error, 1)
	go func() { walkErr <- w.Walk(context.Background()) }()

	select {
	case err := <-walkErr:
		if err != nil {
			t.Fatalf("Walk failed: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("Walk did not finish: dirs scanned = %d of %d",
			run.Counters.DirsScanned.Load(), dirs+1)
	}

	if got := run.Counters.DirsScanned.Load(); got != dirs+1 {
		t.Errorf("DirsScanned = %d, want %d", got, dirs+1)
	}
}

// TestWalkDeepFanOut covers a two-level fan-out with multiple workers, all
// of them producing into the shared queue at once.
func TestWalkDeepFanOut(t *testing.T) {
	root := t.TempDir()

	const branches = 1200
	for i := 0; i < branches; i++ {
		dir := filepath.Join(root, fmt.Sprintf("artist%04d", i))
		if err := os.MkdirAll(filepath.Join(dir, "disc1"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Mkdir(filepath.Join(dir, "disc2"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	run := state.NewRun()
	w := New(Options{Root: root, MinSize: 100, DirWorkers: 4, FileWorkers: 2}, run)

	walkErr := make(chan error, 1)
	go func() { walkErr <- w.Walk(context.Background()) }()

	select {
	case err := <-walkErr:
		if err != nil {
			t.Fatalf("Walk failed: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("Walk did not finish: dirs scanned = %d of %d",
			run.Counters.DirsScanned.Load(), 3*branches+1)
	}

	if got := run.Counters.DirsScanned.Load(); got != 3*branches+1 {
		t.Errorf("DirsScanned = %d, want %d", got, 3*branches+1)
	}
}
