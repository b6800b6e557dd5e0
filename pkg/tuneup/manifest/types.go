// Package manifest provides operation logging for cleaning runs. Every
// committed deletion writes a JSON manifest so the user can audit what was
// removed and why.
package manifest

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpClean represents a completed cleaning run (renames and pruning).
	OpClean OperationType = "clean"
	// OpDelete represents a committed deletion.
	OpDelete OperationType = "delete"
)

// Entry represents a single manifest entry.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
	Root      string        `json:"root"`
	Files     []FileRecord  `json:"files"`
	Summary   Summary       `json:"summary"`
}

// FileRecord represents a file in the manifest.
type FileRecord struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	DeletedAt time.Time `json:"deleted_at,omitempty"`
}

// Summary contains operation summary.
type Summary struct {
	TotalFiles int64 `json:"total_files"`
	TotalBytes int64 `json:"total_bytes"`
}
