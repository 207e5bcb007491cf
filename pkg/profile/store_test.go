package profile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhnwtools/unisync/pkg/errors"
)

func TestStoreRoundTrip(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := NewStoreAt("/home/student/.unisync/profiles")

	p := validProfile()
	p.AutoCommit = true
	p.Schedule = "0 7 * * 1-5"
	p.Rules.FileExtensions = []string{".pdf"}

	saved, err := store.Save(p)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())

	loaded, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, loaded.Name)
	assert.Equal(t, saved.Source, loaded.Source)
	assert.Equal(t, saved.Mode, loaded.Mode)
	assert.True(t, loaded.AutoCommit)
	assert.Equal(t, "0 7 * * 1-5", loaded.Schedule)
	assert.Equal(t, []string{".pdf"}, loaded.Rules.FileExtensions)

	byName, err := store.GetByName("lectures")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byName.ID)
}

func TestStoreList(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := NewStoreAt("/profiles")

	// Listing an empty (nonexistent) store isn't an error.
	profiles, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	second := validProfile()
	second.Name = "exercises"
	second.Destination.Path = "/home/student/exercises"

	_, err = store.Save(validProfile())
	require.NoError(t, err)
	_, err = store.Save(second)
	require.NoError(t, err)

	profiles, err = store.List()
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	// Sorted by name.
	assert.Equal(t, "exercises", profiles[0].Name)
	assert.Equal(t, "lectures", profiles[1].Name)
}

func TestStoreDelete(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := NewStoreAt("/profiles")

	saved, err := store.Save(validProfile())
	require.NoError(t, err)

	require.NoError(t, store.Delete(saved.ID))

	_, err = store.Get(saved.ID)
	assert.IsType(t, errors.PathNotFound{}, err)

	err = store.Delete(saved.ID)
	assert.IsType(t, errors.PathNotFound{}, err)
}

func TestStoreRejectsInvalid(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := NewStoreAt("/profiles")

	bad := validProfile()
	bad.Mode = "turbo"
	_, err := store.Save(bad)
	assert.Error(t, err)
}

func TestStoreRejectsUnknownFields(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := NewStoreAt("/profiles")

	contents := []byte("name: lectures\nbogusField: true\n")
	require.NoError(t, afero.WriteFile(fs, "/profiles/abc.yaml", contents, 0644))

	_, err := store.Get("abc")
	assert.Error(t, err)
}
