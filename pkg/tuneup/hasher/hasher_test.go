package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// TestHashFile verifies the digest matches a directly computed SHA-256.
func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	content := []byte("not really audio but content is content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	sum := sha256.Sum256(content)
	want := types.Digest(hex.EncodeToString(sum[:]))
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

// TestHashFileLarge verifies files spanning multiple read chunks hash
// correctly.
func TestHashFileLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.flac")
	content := bytes.Repeat([]byte{0xAB, 0xCD}, ChunkSize) // 2x chunk size
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	sum := sha256.Sum256(content)
	if got != types.Digest(hex.EncodeToString(sum[:])) {
		t.Error("digest mismatch for multi-chunk file")
	}
}

// TestHashFileIdenticalContent verifies two files with the same bytes get
// the same digest regardless of name or location.
func TestHashFileIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("same bytes")

	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "B.mp3")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, content, 0o644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}

	da, err := HashFile(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := HashFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Errorf("identical content hashed differently: %s vs %s", da, db)
	}
}

// TestHashFileMissing verifies open errors are returned.
func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope.mp3"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
