// Package hasher computes content digests for files. Files are streamed
// through SHA-256 in fixed-size chunks so memory stays bounded regardless
// of file size.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// ChunkSize is the read buffer size used when streaming a file.
const ChunkSize = 80 * 1024

// HashFile returns the SHA-256 digest of the file at path. The file is read
// in ChunkSize chunks, never loaded whole. Open and read errors are
// returned to the caller; the walker treats them as per-file skips.
func HashFile(path string) (types.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return types.Digest(hex.EncodeToString(h.Sum(nil))), nil
}
