package sync

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreRoundTrip(t *testing.T) {
	useMemFs()
	store := NewStateStoreAt("/state")

	snapshot := Snapshot{
		"notes.txt": fileRecord("notes.txt", 12, baseTime),
		"sub":       dirRecord("sub", baseTime),
	}
	require.NoError(t, store.Save("profile-1", snapshot))

	loaded, ok, err := store.Load("profile-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, loaded, "notes.txt")
	assert.Equal(t, int64(12), loaded["notes.txt"].Size)
	assert.True(t, loaded["notes.txt"].ModTime.Equal(baseTime))
	assert.True(t, loaded["sub"].IsDir)
}

func TestStateStoreLoadMissing(t *testing.T) {
	useMemFs()
	store := NewStateStoreAt("/state")

	snapshot, ok, err := store.Load("never-synced")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snapshot)
}

func TestStateStoreSaveReplaces(t *testing.T) {
	useMemFs()
	store := NewStateStoreAt("/state")

	require.NoError(t, store.Save("profile-1", Snapshot{
		"old.txt": fileRecord("old.txt", 1, baseTime),
	}))
	require.NoError(t, store.Save("profile-1", Snapshot{
		"new.txt": fileRecord("new.txt", 2, baseTime.Add(time.Hour)),
	}))

	loaded, ok, err := store.Load("profile-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, loaded, "old.txt")
	assert.Contains(t, loaded, "new.txt")

	// No temp files left behind.
	infos, err := afero.ReadDir(fs, "/state")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "profile-1.yaml", infos[0].Name())
}

func TestStateStoreIgnoresIncompatibleVersion(t *testing.T) {
	useMemFs()
	store := NewStateStoreAt("/state")

	contents := "version: 2.0.0\nprofileId: profile-1\nfiles:\n  a.txt:\n    path: a.txt\n    size: 1\n"
	require.NoError(t, fs.MkdirAll("/state", 0755))
	require.NoError(t, afero.WriteFile(fs, "/state/profile-1.yaml", []byte(contents), 0644))

	snapshot, ok, err := store.Load("profile-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snapshot)
}

func TestStateStoreClear(t *testing.T) {
	useMemFs()
	store := NewStateStoreAt("/state")

	require.NoError(t, store.Save("profile-1", Snapshot{}))
	require.NoError(t, store.Clear("profile-1"))

	_, ok, err := store.Load("profile-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an absent snapshot is fine.
	require.NoError(t, store.Clear("profile-1"))
}
