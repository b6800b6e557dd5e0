package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/tuneup/pkg/tuneup/hasher"
	"github.com/jamesainslie/tuneup/pkg/tuneup/logging"
	"github.com/jamesainslie/tuneup/pkg/tuneup/normalize"
	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

var logger = logging.Get("walker")

// dirQueue is an unbounded pending-directory queue. Workers both consume
// from and produce into it, so a push must never block: a bounded channel
// would deadlock once every worker sits in a full send with nobody left to
// receive. wake carries at most one token; pop re-arms it while work
// remains so a waiting worker is never stranded.
type dirQueue struct {
	mu      sync.Mutex
	pending []string
	wake    chan struct{}
}

func newDirQueue() *dirQueue {
	return &dirQueue{wake: make(chan struct{}, 1)}
}

// push appends a directory and signals one waiting worker. Never blocks.
func (q *dirQueue) push(path string) {
	q.mu.Lock()
	q.pending = append(q.pending, path)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes the next directory, reporting false when the queue is empty.
func (q *dirQueue) pop() (string, bool) {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return "", false
	}
	path := q.pending[0]
	q.pending = q.pending[1:]
	more := len(q.pending) > 0
	q.mu.Unlock()

	if more {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	return path, true
}

// ScanError pairs a path with the error encountered there.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Walker traverses a directory tree concurrently, hashing audio files into
// the digest index and queueing rename operations. A per-file failure skips
// that file; a directory read failure skips that subtree; neither aborts
// the walk.
type Walker struct {
	opts Options
	run  *state.Run

	// currentPath is the directory currently being processed (for progress).
	currentPath atomic.Value

	// lastProgress throttles progress callbacks.
	lastProgress atomic.Int64

	// walkComplete indicates traversal is finished.
	walkComplete atomic.Bool

	// errors collects per-path failures without stopping the walk.
	errors   []ScanError
	errorsMu sync.Mutex

	// root is the resolved absolute path being walked.
	root string
}

// New creates a Walker over the given run state.
func New(opts Options, run *state.Run) *Walker {
	_ = opts.Validate()

	w := &Walker{
		opts: opts,
		run:  run,
	}
	w.currentPath.Store("")
	return w
}

// Errors returns the per-path failures collected during the walk.
func (w *Walker) Errors() []ScanError {
	w.errorsMu.Lock()
	defer w.errorsMu.Unlock()
	out := make([]ScanError, len(w.errors))
	copy(out, w.errors)
	return out
}

// Root returns the resolved absolute root, valid after Walk begins.
func (w *Walker) Root() string {
	return w.root
}

// Walk traverses the tree rooted at Options.Root and blocks until every
// directory has been processed. An invalid root is the only fatal error;
// everything else is collected and skipped.
func (w *Walker) Walk(ctx context.Context) error {
	root, err := w.validateRoot()
	if err != nil {
		return err
	}
	w.root = root

	w.currentPath.Store(root)
	w.reportProgressForce()

	walkCtx, done := context.WithCancel(ctx)
	defer done()

	queue := newDirQueue()
	var inFlight atomic.Int64

	// Seed the queue with the root before starting workers.
	inFlight.Add(1)
	queue.push(root)

	var wg sync.WaitGroup
	for i := 0; i < w.opts.DirWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.dirWorker(walkCtx, queue, &inFlight, done)
		}()
	}
	wg.Wait()

	w.walkComplete.Store(true)
	w.reportProgressForce()

	logger.Info("walk complete",
		"dirs", w.run.Counters.DirsScanned.Load(),
		"files", w.run.Counters.FilesScanned.Load(),
		"errors", len(w.Errors()))

	return ctx.Err()
}

// validateRoot resolves the root path to absolute and verifies it is an
// existing directory.
func (w *Walker) validateRoot() (string, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return "", err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !rootInfo.IsDir() {
		return "", os.ErrInvalid
	}

	return root, nil
}

// dirWorker processes directories from the queue until all queued work has
// drained. inFlight counts directories queued but not yet fully processed;
// when it reaches zero the worker cancels the walk context so its peers
// exit too.
func (w *Walker) dirWorker(ctx context.Context, queue *dirQueue, inFlight *atomic.Int64, done context.CancelFunc) {
	for {
		if ctx.Err() != nil {
			return
		}

		dir, ok := queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-queue.wake:
				continue
			}
		}

		w.processDirectory(ctx, dir, queue, inFlight)

		if inFlight.Add(-1) == 0 {
			done()
			return
		}
	}
}

// processDirectory handles one directory: audio files are hashed
// concurrently first, then subdirectories are queued for recursion. The
// recursion uses the pre-normalization path; no rename runs until the walk
// is complete, so queued paths stay valid.
func (w *Walker) processDirectory(ctx context.Context, dir string, queue *dirQueue, inFlight *atomic.Int64) {
	w.currentPath.Store(dir)
	w.run.Counters.DirsScanned.Add(1)
	w.reportProgress()

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Subtree abort: skip this branch only.
		w.addError(dir, err)
		logger.Warn("skipping unreadable directory", "path", dir, "error", err)
		return
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.FileWorkers)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !types.IsAudioFile(path) || w.isExcluded(path) {
			continue
		}

		g.Go(func() error {
			w.processFile(path)
			return nil
		})
	}
	_ = g.Wait()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if w.isExcluded(path) {
			continue
		}

		w.queueDirRename(dir, entry.Name())

		inFlight.Add(1)
		queue.push(path)
	}
}

// processFile stats, size-screens, hashes, and queues a rename for a single
// audio file. Any failure records an error and skips the file.
func (w *Walker) processFile(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		w.addError(path, err)
		return
	}

	size := info.Size()
	w.run.Counters.BytesScanned.Add(size)

	// Files below the threshold are broken stubs: slate for deletion,
	// skip hashing entirely.
	if size < w.opts.MinSize {
		w.run.Deletions.Add(path, state.ReasonUndersized)
		w.run.Counters.SmallFiles.Add(1)
		return
	}

	digest, err := hasher.HashFile(path)
	if err != nil {
		w.addError(path, err)
		logger.Warn("skipping unreadable file", "path", path, "error", err)
		return
	}

	w.run.Index.Add(digest, path)
	w.run.Counters.FilesScanned.Add(1)
	w.reportProgress()

	base := filepath.Base(path)
	normalized := normalize.FileName(base)
	if normalized != base && normalized != strings.ToLower(filepath.Ext(base)) {
		w.run.FileRenames.Push(types.RenameOp{
			OldPath: path,
			NewPath: filepath.Join(filepath.Dir(path), normalized),
			Kind:    types.RenameFile,
		})
	}
}

// queueDirRename enqueues a directory rename when normalization changes the
// name. Comparison is case-insensitive: a case-only change would collide
// with itself on case-insensitive filesystems and the directory pass skips
// existing targets anyway.
func (w *Walker) queueDirRename(parent, name string) {
	normalized := normalize.DirName(name)
	if normalized == "" || strings.EqualFold(normalized, name) {
		return
	}

	w.run.DirRenames.Push(types.RenameOp{
		OldPath: filepath.Join(parent, name),
		NewPath: filepath.Join(parent, normalized),
		Kind:    types.RenameDir,
	})
}

// addError records a per-path failure thread-safely.
func (w *Walker) addError(path string, err error) {
	w.run.Counters.Errors.Add(1)
	w.errorsMu.Lock()
	w.errors = append(w.errors, ScanError{
		Path:  path,
		Error: err.Error(),
	})
	w.errorsMu.Unlock()
}

// isExcluded checks if a path matches any exclusion pattern.
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.opts.Exclude {
		if pattern == "" {
			continue
		}

		// Prefix match for excluded directories.
		if path == pattern ||
			strings.HasPrefix(path, pattern+string(filepath.Separator)) {
			return true
		}

		// Glob matching against basename, then full path.
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// reportProgress calls the progress callback if configured, throttled to
// every 10ms to avoid excessive overhead.
func (w *Walker) reportProgress() {
	if w.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := w.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !w.lastProgress.CompareAndSwap(last, now) {
		return // another goroutine updated it
	}

	w.sendProgress()
}

// reportProgressForce calls the progress callback immediately, bypassing
// the throttle. Used for walk start/end.
func (w *Walker) reportProgressForce() {
	if w.opts.OnProgress == nil {
		return
	}
	w.lastProgress.Store(time.Now().UnixMilli())
	w.sendProgress()
}

func (w *Walker) sendProgress() {
	currentPath, _ := w.currentPath.Load().(string)

	w.opts.OnProgress(Progress{
		Counters:     w.run.Counters.Snapshot(),
		CurrentPath:  currentPath,
		WalkComplete: w.walkComplete.Load(),
	})
}
