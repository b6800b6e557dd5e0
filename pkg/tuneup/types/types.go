// Package types provides core data types for the tuneup audio library
// cleaner. It includes the content digest and rename operation types shared
// by the walker, resolver, and rename executor, along with utility functions
// for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// Digest is the hex-encoded SHA-256 digest of a file's full byte content.
// It is used as a content-equality proxy: two files share a Digest exactly
// when they share every byte.
type Digest string

// RenameKind distinguishes file renames from directory renames.
type RenameKind int

// Rename kinds.
const (
	RenameFile RenameKind = iota
	RenameDir
)

// String returns the string representation of the kind.
func (k RenameKind) String() string {
	switch k {
	case RenameFile:
		return "file"
	case RenameDir:
		return "dir"
	default:
		return "unknown"
	}
}

// RenameOp is a pending (old path, new path) move awaiting execution.
// Both paths are absolute. Directory ops are ordered by descending old-path
// length before execution so descendants move before their ancestors.
type RenameOp struct {
	// OldPath is the current absolute path of the entry.
	OldPath string `json:"old_path"`

	// NewPath is the absolute path the entry should move to.
	NewPath string `json:"new_path"`

	// Kind is whether the op targets a file or a directory.
	Kind RenameKind `json:"kind"`
}

// FileEntry describes a regular file seen during the walk. It exists only
// for the duration of a single run.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Digest is the content digest, empty until hashed.
	Digest Digest `json:"digest,omitempty"`
}

// AudioExtensions is the fixed allow-list of recognized audio file suffixes.
// Matching is case-insensitive; files with any other suffix are not scanned.
var AudioExtensions = []string{".mp3", ".flac", ".wav", ".aac", ".ogg", ".m4a"}

// IsAudioFile reports whether path carries a recognized audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// PathDepth returns the number of separator-delimited segments in path.
// Deeper paths have more segments; used by the duplicate survivor policy.
func PathDepth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMG]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports plain bytes ("1024"), byte suffixes ("512B"), and K/M/G units
// with optional B/iB suffixes. Decimal values are truncated to the nearest
// byte. Returns ErrInvalidSize if the format is not recognized and
// ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
