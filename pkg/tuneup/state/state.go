// Package state holds the shared mutable state of a single cleaning run:
// the digest index, the pending rename queues, the deletion set, and the
// run counters. One Run value is created per invocation and passed into the
// walker, resolver, and rename executor; there are no package-level
// singletons and nothing survives the process.
package state

import (
	"hash/fnv"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// indexShards is the number of lock stripes in the digest index. Inserts
// from concurrent file workers contend only within a stripe.
const indexShards = 32

// indexShard is one stripe of the digest index.
type indexShard struct {
	mu    sync.Mutex
	paths map[types.Digest][]string
}

// DigestIndex maps content digests to the set of absolute file paths
// sharing that digest. It is safe for concurrent insert from many
// goroutines; reads are intended for after the walk join point.
type DigestIndex struct {
	shards [indexShards]indexShard
}

// NewDigestIndex creates an empty index.
func NewDigestIndex() *DigestIndex {
	idx := &DigestIndex{}
	for i := range idx.shards {
		idx.shards[i].paths = make(map[types.Digest][]string)
	}
	return idx
}

func (idx *DigestIndex) shard(d types.Digest) *indexShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(d))
	return &idx.shards[h.Sum32()%indexShards]
}

// Add records that the file at path has the given digest.
func (idx *DigestIndex) Add(d types.Digest, path string) {
	s := idx.shard(d)
	s.mu.Lock()
	s.paths[d] = append(s.paths[d], path)
	s.mu.Unlock()
}

// Len returns the number of distinct digests in the index.
func (idx *DigestIndex) Len() int {
	n := 0
	for i := range idx.shards {
		s := &idx.shards[i]
		s.mu.Lock()
		n += len(s.paths)
		s.mu.Unlock()
	}
	return n
}

// Groups returns every digest with its path set, paths sorted
// lexicographically so iteration order within a group is stable.
func (idx *DigestIndex) Groups() map[types.Digest][]string {
	out := make(map[types.Digest][]string)
	for i := range idx.shards {
		s := &idx.shards[i]
		s.mu.Lock()
		for d, paths := range s.paths {
			cp := make([]string, len(paths))
			copy(cp, paths)
			sort.Strings(cp)
			out[d] = cp
		}
		s.mu.Unlock()
	}
	return out
}

// RenameQueue collects pending rename operations during the walk.
// Appends are safe from concurrent file workers; Drain is called once,
// after the walk completes.
type RenameQueue struct {
	mu  sync.Mutex
	ops []types.RenameOp
}

// Push appends an operation to the queue.
func (q *RenameQueue) Push(op types.RenameOp) {
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.mu.Unlock()
}

// Len returns the number of queued operations.
func (q *RenameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Drain removes and returns all queued operations.
func (q *RenameQueue) Drain() []types.RenameOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

// Deletion reasons.
const (
	ReasonUndersized = "undersized"
	ReasonDuplicate  = "duplicate"
)

// DeletionSet is the set of absolute file paths slated for removal, either
// small files found during the walk or duplicates not chosen as survivor.
// Each path carries the reason it was slated. Deletion happens only after
// the external confirmation gate.
type DeletionSet struct {
	mu    sync.Mutex
	paths map[string]string // path → reason
}

// NewDeletionSet creates an empty set.
func NewDeletionSet() *DeletionSet {
	return &DeletionSet{paths: make(map[string]string)}
}

// Add inserts a path into the set with the given reason.
func (d *DeletionSet) Add(path, reason string) {
	d.mu.Lock()
	d.paths[path] = reason
	d.mu.Unlock()
}

// Reason returns why path was slated, or the empty string if absent.
func (d *DeletionSet) Reason(path string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paths[path]
}

// Contains reports whether path is in the set.
func (d *DeletionSet) Contains(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.paths[path]
	return ok
}

// Len returns the number of paths in the set.
func (d *DeletionSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.paths)
}

// Paths returns the set contents sorted lexicographically.
func (d *DeletionSet) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.paths))
	for p := range d.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Rewrite replaces old with new in the set, if present. The rename executor
// calls this for every applied file rename so deletion paths stay valid.
func (d *DeletionSet) Rewrite(oldPath, newPath string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if reason, ok := d.paths[oldPath]; ok {
		delete(d.paths, oldPath)
		d.paths[newPath] = reason
	}
}

// RewritePrefix rewrites every path in the set under oldDir to live under
// newDir instead. The rename executor calls this after each applied
// directory rename so deletion paths never reference stale prefixes.
func (d *DeletionSet) RewritePrefix(oldDir, newDir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prefix := oldDir + string(filepath.Separator)
	for p, reason := range d.paths {
		if strings.HasPrefix(p, prefix) {
			delete(d.paths, p)
			d.paths[filepath.Join(newDir, strings.TrimPrefix(p, prefix))] = reason
		}
	}
}

// Run owns all shared state for one invocation. Construct with NewRun,
// pass by pointer into each phase, discard at exit.
type Run struct {
	Index       *DigestIndex
	FileRenames *RenameQueue
	DirRenames  *RenameQueue
	Deletions   *DeletionSet
	Counters    *Counters
}

// NewRun creates a zeroed run context with the clock started.
func NewRun() *Run {
	return &Run{
		Index:       NewDigestIndex(),
		FileRenames: &RenameQueue{},
		DirRenames:  &RenameQueue{},
		Deletions:   NewDeletionSet(),
		Counters:    newCounters(time.Now()),
	}
}
