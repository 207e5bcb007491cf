// Package gitutil runs the post-sync git integration: profiles with AutoPull
// fast-forward the destination repository right after the share sync, so a
// machine is fully up to date in one step.
package gitutil

import (
	"time"

	log "github.com/sirupsen/logrus"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// Pull fast-forwards the repository at path from its origin remote. An
// already up-to-date repository is not an error.
func Pull(path string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return errors.WithContext(err, "open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.WithContext(err, "get worktree")
	}

	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if err == git.NoErrAlreadyUpToDate {
		log.WithField("path", path).Debug("Repository already up to date")
		return nil
	}
	if err != nil {
		return errors.WithContext(err, "pull")
	}
	return nil
}

// CommitAll stages every change in the repository at path and commits it. A
// clean worktree is not an error and produces no commit.
func CommitAll(path, message string) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return errors.WithContext(err, "open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.WithContext(err, "get worktree")
	}

	status, err := worktree.Status()
	if err != nil {
		return errors.WithContext(err, "get status")
	}
	if status.IsClean() {
		log.WithField("path", path).Debug("Worktree clean, nothing to commit")
		return nil
	}

	if err := worktree.AddGlob("."); err != nil {
		return errors.WithContext(err, "stage changes")
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "unisync",
			Email: "unisync@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return errors.WithContext(err, "commit")
	}
	return nil
}

// CommitAllIfRepo commits when path is a git repository and does nothing
// otherwise.
func CommitAllIfRepo(path, message string) error {
	if _, err := git.PlainOpen(path); err == git.ErrRepositoryNotExists {
		return nil
	}
	return CommitAll(path, message)
}

// PullIfRepo pulls when path is a git repository and does nothing otherwise.
// It's called after a successful sync, so failures are reported but must
// never undo the sync's success.
func PullIfRepo(path string) error {
	if _, err := git.PlainOpen(path); err == git.ErrRepositoryNotExists {
		log.WithField("path", path).Debug("Not a git repository, skipping pull")
		return nil
	}
	return Pull(path)
}
