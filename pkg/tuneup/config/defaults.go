// Package config provides configuration management for the tuneup audio
// library cleaner.
package config

// Default configuration values for tuneup.
const (
	// DefaultMinSize is the minimum audio file size; anything smaller is
	// treated as a broken stub and slated for deletion without hashing.
	DefaultMinSize = "31968B"

	// DefaultPath is the default directory to clean when none is specified.
	DefaultPath = "."

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/tuneup"

	// DefaultRetentionDays is the default number of days to retain manifests.
	DefaultRetentionDays = 30

	// DefaultDirWorkers is the default number of directory walker workers.
	DefaultDirWorkers = 4

	// DefaultFileWorkers is the default number of file hashing workers.
	DefaultFileWorkers = 8
)

// DefaultExclusions contains paths excluded from cleaning by default.
var DefaultExclusions = []string{
	".git",
	"@eaDir",
	".Trash",
}
