// Package resolver applies the duplicate survivor policy to a completed
// digest index. It runs once, synchronously, after the walk join point and
// performs no I/O of its own.
package resolver

import (
	"sort"

	"github.com/jamesainslie/tuneup/pkg/tuneup/state"
	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// Group is one set of content-identical files after resolution.
type Group struct {
	// Digest shared by every file in the group.
	Digest types.Digest `json:"digest"`

	// Survivor is the single path retained.
	Survivor string `json:"survivor"`

	// Discarded are the paths added to the deletion set.
	Discarded []string `json:"discarded"`
}

// Resolve walks every digest group with more than one member, selects
// exactly one survivor, and marks the rest for deletion in run.Deletions.
// The duplicate counter is incremented once per discarded file. It returns
// the resolved groups sorted by digest for deterministic reporting.
//
// Survivor order: most path segments first (deeper placement wins), then
// shortest total path, then lexicographic. The first path after sorting
// survives.
func Resolve(run *state.Run) []Group {
	var groups []Group

	for digest, paths := range run.Index.Groups() {
		if len(paths) < 2 {
			continue
		}

		ordered := make([]string, len(paths))
		copy(ordered, paths)
		SortBySurvivorPolicy(ordered)

		g := Group{
			Digest:    digest,
			Survivor:  ordered[0],
			Discarded: ordered[1:],
		}
		for _, p := range g.Discarded {
			run.Deletions.Add(p, state.ReasonDuplicate)
			run.Counters.Duplicates.Add(1)
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Digest < groups[j].Digest
	})
	return groups
}

// SortBySurvivorPolicy orders paths so the preferred survivor is first:
// path depth descending, then path length ascending, then lexicographic
// ascending. The final tie-break makes the order total, so resolution is a
// deterministic function of the path set.
func SortBySurvivorPolicy(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		di, dj := types.PathDepth(paths[i]), types.PathDepth(paths[j])
		if di != dj {
			return di > dj
		}
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})
}
