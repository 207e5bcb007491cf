package gitutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	git "gopkg.in/src-d/go-git.v4"
)

func TestCommitAll(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))

	require.NoError(t, CommitAll(dir, "sync snapshot"))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "sync snapshot", commit.Message)

	// A clean worktree commits nothing.
	require.NoError(t, CommitAll(dir, "noop"))
	headAfter, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), headAfter.Hash())
}

func TestIfRepoHelpersIgnoreNonRepos(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CommitAllIfRepo(dir, "msg"))
	assert.NoError(t, PullIfRepo(dir))
}
