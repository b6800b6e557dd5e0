package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManifest(t *testing.T) *Manifest {
	t.Helper()
	m, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, m.EnsureDir())
	return m
}

func TestNewEmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestLogDeleteRoundTrip(t *testing.T) {
	m := newManifest(t)

	files := []FileRecord{
		{Path: "/lib/Song.mp3", Size: 40000, Reason: "duplicate", DeletedAt: time.Now().UTC()},
		{Path: "/lib/stub.mp3", Size: 12, Reason: "undersized", DeletedAt: time.Now().UTC()},
	}

	entry, err := m.LogDelete("/lib", files)
	require.NoError(t, err)
	assert.Equal(t, OpDelete, entry.Operation)
	assert.Equal(t, "/lib", entry.Root)
	assert.EqualValues(t, 2, entry.Summary.TotalFiles)
	assert.EqualValues(t, 40012, entry.Summary.TotalBytes)

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "duplicate", got.Files[0].Reason)
}

func TestLogCleanOperation(t *testing.T) {
	m := newManifest(t)

	entry, err := m.LogClean("/lib", []FileRecord{{Path: "/lib/Track.mp3"}})
	require.NoError(t, err)
	assert.Equal(t, OpClean, entry.Operation)
}

func TestListNewestFirst(t *testing.T) {
	m := newManifest(t)

	first, err := m.LogClean("/lib", nil)
	require.NoError(t, err)
	second, err := m.LogDelete("/lib", nil)
	require.NoError(t, err)

	// Timestamps have second resolution in the ID but full resolution in
	// the entry; both entries were just written.
	entries, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ids := []string{entries[0].ID, entries[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	limited, err := m.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListMissingDir(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	entries, err := m.List(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClean(t *testing.T) {
	m := newManifest(t)

	entry, err := m.LogDelete("/lib", nil)
	require.NoError(t, err)

	// Rewrite the entry with an old timestamp so it falls past retention.
	old := *entry
	old.Timestamp = time.Now().UTC().AddDate(0, 0, -90)
	require.NoError(t, m.writeEntry(&old))

	fresh, err := m.LogDelete("/lib", nil)
	require.NoError(t, err)

	removed, err := m.Clean(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := m.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}

func TestCleanZeroRetention(t *testing.T) {
	m := newManifest(t)
	_, err := m.LogDelete("/lib", nil)
	require.NoError(t, err)

	removed, err := m.Clean(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestWriteEntryAtomic(t *testing.T) {
	m := newManifest(t)

	entry, err := m.LogClean("/lib", nil)
	require.NoError(t, err)

	// No temp files left behind.
	matches, err := filepath.Glob(filepath.Join(m.dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = os.Stat(filepath.Join(m.dir, entry.ID+".json"))
	assert.NoError(t, err)
}
