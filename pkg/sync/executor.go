package sync

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// tempPrefix names in-flight copies in the destination directory. A copy
// writes the whole file under this prefix and renames over the final name on
// success, so a failed or cancelled transfer never leaves a partial file at
// the final path.
const tempPrefix = ".unisync-"

// executor performs a single run's filesystem mutations. fromRoot and toRoot
// are fixed per action by the engine according to the action's source side.
type executor struct {
	throttle      *Throttle
	preservePerms bool
	preserveTimes bool
}

// copyEntry transfers one file (or creates one directory) from fromRoot to
// toRoot, returning the number of bytes written. Errors are classified into
// the sync error taxonomy.
func (ex executor) copyEntry(fromRoot, toRoot string, rec FileRecord) (int64, error) {
	target := filepath.Join(toRoot, filepath.FromSlash(rec.Path))

	if rec.IsDir {
		// The path may currently hold a file on the target side. An overwrite
		// copy replaces it, whatever its type.
		if info, statErr := fs.Stat(target); statErr == nil && !info.IsDir() {
			if err := fs.Remove(target); err != nil {
				return 0, errors.ClassifyIO(rec.Path, err)
			}
		}

		mode := os.FileMode(rec.Mode)
		if mode == 0 {
			mode = 0755
		}
		if err := fs.MkdirAll(target, mode); err != nil {
			return 0, errors.ClassifyIO(rec.Path, err)
		}
		return 0, nil
	}

	srcPath := filepath.Join(fromRoot, filepath.FromSlash(rec.Path))
	src, err := fs.Open(srcPath)
	if err != nil {
		return 0, errors.ClassifyIO(rec.Path, err)
	}
	defer src.Close()

	if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, errors.ClassifyIO(rec.Path, err)
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(target), tempPrefix)
	if err != nil {
		return 0, errors.ClassifyIO(rec.Path, err)
	}
	tmpName := tmp.Name()

	written, err := ex.copyContents(tmp, src)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = ex.applyAttributes(tmpName, rec)
	}
	if err == nil {
		err = ex.renameOver(tmpName, target)
	}
	if err != nil {
		if removeErr := fs.Remove(tmpName); removeErr != nil && !os.IsNotExist(removeErr) {
			log.WithError(removeErr).WithField("path", tmpName).
				Warn("Failed to clean up temporary file")
		}
		return 0, errors.ClassifyIO(rec.Path, err)
	}

	return written, nil
}

func (ex executor) copyContents(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, throttleChunk)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			ex.throttle.Wait(n)
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func (ex executor) applyAttributes(path string, rec FileRecord) error {
	if ex.preservePerms && rec.Mode != 0 {
		if err := fs.Chmod(path, os.FileMode(rec.Mode)); err != nil {
			return err
		}
	}
	if ex.preserveTimes {
		if err := fs.Chtimes(path, rec.ModTime, rec.ModTime); err != nil {
			return err
		}
	}
	return nil
}

// renameOver moves the finished temporary file to the final name. Some
// filesystems refuse to rename over an existing file, and the target may be a
// whole directory when the entry's type flipped, so on failure the stale
// target is removed and the rename tried once more.
func (ex executor) renameOver(tmpName, target string) error {
	if err := fs.Rename(tmpName, target); err == nil {
		return nil
	}
	if err := fs.RemoveAll(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return fs.Rename(tmpName, target)
}

// deleteEntry removes the path from toRoot, recursively for directories. A
// path that's already gone counts as success: deletes are idempotent.
func (ex executor) deleteEntry(toRoot, relPath string) error {
	target := filepath.Join(toRoot, filepath.FromSlash(relPath))
	if err := fs.RemoveAll(target); err != nil && !os.IsNotExist(err) {
		return errors.ClassifyIO(relPath, err)
	}
	return nil
}
