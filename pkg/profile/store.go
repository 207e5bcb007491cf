package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// parseProfileErrTemplate is shown when a profile file can't be parsed. The
// yaml library constructs errors in a way that loses context, so we can only
// pass the error message on.
const parseProfileErrTemplate = "Profile file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the profile file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// Store persists sync profiles as YAML files in a per-user directory, one
// file per profile keyed by its ID.
type Store struct {
	dir string
}

// NewStore creates a store rooted at the default per-user config directory.
func NewStore() (*Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, errors.WithContext(err, "resolve home directory")
	}
	return NewStoreAt(filepath.Join(home, ".unisync", "profiles")), nil
}

// NewStoreAt creates a store rooted at the given directory.
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory profiles are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the profile to disk, assigning an ID and timestamps if they're
// missing.
func (s *Store) Save(p SyncProfile) (SyncProfile, error) {
	if err := p.Validate(); err != nil {
		return SyncProfile{}, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := fs.MkdirAll(s.dir, 0755); err != nil {
		return SyncProfile{}, errors.WithContext(err, "create profiles directory")
	}

	contents, err := yaml.Marshal(p)
	if err != nil {
		return SyncProfile{}, errors.WithContext(err, "marshal profile")
	}

	if err := afero.WriteFile(fs, s.path(p.ID), contents, 0644); err != nil {
		return SyncProfile{}, errors.WithContext(err, "write profile")
	}
	return p, nil
}

// Get returns the profile with the given ID.
func (s *Store) Get(id string) (SyncProfile, error) {
	return s.parse(s.path(id))
}

// GetByName returns the profile with the given name. Name lookup is a
// convenience for the CLI; IDs remain the canonical key.
func (s *Store) GetByName(name string) (SyncProfile, error) {
	profiles, err := s.List()
	if err != nil {
		return SyncProfile{}, err
	}

	for _, p := range profiles {
		if p.Name == name || p.ID == name {
			return p, nil
		}
	}
	return SyncProfile{}, errors.NewFriendlyError(
		"No profile named %q.\nRun `unisync profiles list` to see the "+
			"available profiles.", name)
}

// List returns all stored profiles sorted by name.
func (s *Store) List() ([]SyncProfile, error) {
	infos, err := afero.ReadDir(fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithContext(err, "read profiles directory")
	}

	var profiles []SyncProfile
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".yaml") {
			continue
		}

		p, err := s.parse(filepath.Join(s.dir, info.Name()))
		if err != nil {
			return nil, errors.WithContext(err,
				fmt.Sprintf("parse profile %q", info.Name()))
		}
		profiles = append(profiles, p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// Delete removes the profile with the given ID.
func (s *Store) Delete(id string) error {
	if err := fs.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return errors.PathNotFound{Path: s.path(id)}
		}
		return errors.WithContext(err, "delete profile")
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

func (s *Store) parse(path string) (SyncProfile, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return SyncProfile{}, errors.PathNotFound{Path: path}
		}
		return SyncProfile{}, errors.WithContext(err, "read profile")
	}

	var p SyncProfile
	if err := yaml.Unmarshal(contents, &p); err != nil {
		return SyncProfile{}, errors.NewFriendlyError(parseProfileErrTemplate, path, err)
	}

	// Strict unmarshal to catch typos in field names. The non-strict pass
	// above runs first so that type errors are reported before extra fields.
	if err := yaml.UnmarshalStrict(contents, &p, yaml.DisallowUnknownFields); err != nil {
		return SyncProfile{}, errors.NewFriendlyError(parseProfileErrTemplate, path, err)
	}
	return p, nil
}
