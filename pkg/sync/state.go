package sync

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	goversion "github.com/hashicorp/go-version"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// stateVersion is written into every snapshot file. Loads check it against
// stateCompat; an incompatible snapshot is ignored, which gives the next
// bidirectional run first-run semantics instead of a hard failure.
const (
	stateVersion = "1.0.0"
	stateCompat  = ">= 1.0.0, < 2.0.0"
)

// stateFile is the on-disk format of the last-sync snapshot side table.
type stateFile struct {
	Version     string    `json:"version"`
	ProfileID   string    `json:"profileId"`
	CompletedAt time.Time `json:"completedAt"`
	Files       Snapshot  `json:"files"`
}

// StateStore persists per-profile last-sync snapshots, one YAML file per
// profile ID. The engine reads the snapshot at the start of a bidirectional
// run and writes it atomically at the end of every successful run.
type StateStore struct {
	dir string
}

// NewStateStore creates a store rooted at the default per-user state
// directory.
func NewStateStore() (*StateStore, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, errors.WithContext(err, "resolve home directory")
	}
	return NewStateStoreAt(filepath.Join(home, ".unisync", "state")), nil
}

// NewStateStoreAt creates a store rooted at the given directory.
func NewStateStoreAt(dir string) *StateStore {
	return &StateStore{dir: dir}
}

// Load returns the last-sync snapshot for the profile. The second return is
// false when no usable snapshot exists: never synced, or written by an
// incompatible version.
func (s *StateStore) Load(profileID string) (Snapshot, bool, error) {
	contents, err := afero.ReadFile(fs, s.path(profileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.WithContext(err, "read sync state")
	}

	var state stateFile
	if err := yaml.Unmarshal(contents, &state); err != nil {
		return nil, false, errors.WithContext(err, "parse sync state")
	}

	if !stateVersionCompatible(state.Version) {
		log.WithFields(log.Fields{
			"profile": profileID,
			"version": state.Version,
		}).Warn("Ignoring last-sync snapshot written by an incompatible version")
		return nil, false, nil
	}

	return state.Files, true, nil
}

// Save atomically replaces the profile's last-sync snapshot.
func (s *StateStore) Save(profileID string, snapshot Snapshot) error {
	if err := fs.MkdirAll(s.dir, 0755); err != nil {
		return errors.WithContext(err, "create state directory")
	}

	contents, err := yaml.Marshal(stateFile{
		Version:     stateVersion,
		ProfileID:   profileID,
		CompletedAt: time.Now(),
		Files:       snapshot,
	})
	if err != nil {
		return errors.WithContext(err, "marshal sync state")
	}

	// Temp file plus rename, so a crash mid-write can't corrupt the previous
	// snapshot.
	tmp, err := afero.TempFile(fs, s.dir, tempPrefix)
	if err != nil {
		return errors.WithContext(err, "create temporary state file")
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(contents)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fs.Remove(tmpName)
		return errors.WithContext(err, "write sync state")
	}

	if err := fs.Rename(tmpName, s.path(profileID)); err != nil {
		// Some filesystems refuse to rename over an existing file.
		if removeErr := fs.Remove(s.path(profileID)); removeErr != nil && !os.IsNotExist(removeErr) {
			_ = fs.Remove(tmpName)
			return errors.WithContext(removeErr, "replace sync state")
		}
		if err := fs.Rename(tmpName, s.path(profileID)); err != nil {
			_ = fs.Remove(tmpName)
			return errors.WithContext(err, "replace sync state")
		}
	}
	return nil
}

// Clear removes the profile's snapshot, if any.
func (s *StateStore) Clear(profileID string) error {
	if err := fs.Remove(s.path(profileID)); err != nil && !os.IsNotExist(err) {
		return errors.WithContext(err, "clear sync state")
	}
	return nil
}

func (s *StateStore) path(profileID string) string {
	return filepath.Join(s.dir, profileID+".yaml")
}

func stateVersionCompatible(v string) bool {
	parsed, err := goversion.NewVersion(v)
	if err != nil {
		return false
	}
	constraint, err := goversion.NewConstraint(stateCompat)
	if err != nil {
		return false
	}
	return constraint.Check(parsed)
}
