package sync

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// ScanTree walks the directory rooted at root and returns a snapshot of every
// entry that survives the filter. Excluded directories are pruned: their
// contents are never visited. Symlinks are recorded as such but not followed.
//
// A failure to read one entry is recorded as a scan error and the walk
// continues. Only a missing or unreadable root is fatal.
func ScanTree(root string, filter *Filter) (Snapshot, []ScanError, error) {
	info, err := fs.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, errors.PathNotFound{Path: root}
	}

	snapshot := Snapshot{}
	var scanErrors []ScanError

	walkErr := afero.Walk(fs, root, func(fullPath string, info os.FileInfo, err error) error {
		if fullPath == root {
			if err != nil {
				return err
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, fullPath)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			// The entry vanished or couldn't be read. Record it and move on.
			scanErrors = append(scanErrors, ScanError{Path: rel, Err: err.Error()})
			log.WithError(err).WithField("path", rel).Debug("Failed to scan entry")
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if filter.PruneDir(rel) {
				return filepath.SkipDir
			}
			snapshot.Add(FileRecord{
				Path:    rel,
				ModTime: info.ModTime(),
				Mode:    uint32(info.Mode().Perm()),
				IsDir:   true,
			})
			return nil
		}

		rec := FileRecord{
			Path:      rel,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Mode:      uint32(info.Mode().Perm()),
			IsSymlink: info.Mode()&os.ModeSymlink != 0,
		}
		if filter.Keep(rec) {
			snapshot.Add(rec)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, errors.WithContext(
			errors.ClassifyIO(root, walkErr), "walk tree")
	}

	return snapshot, scanErrors, nil
}
