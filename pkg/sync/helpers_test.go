package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/fhnwtools/unisync/pkg/profile"
)

// baseTime keeps test modification times away from the zero value, which the
// planner treats as "absent".
var baseTime = time.Date(2023, 9, 18, 12, 0, 0, 0, time.UTC)

func useMemFs() {
	fs = afero.NewMemMapFs()
}

func mustWrite(t *testing.T, path, contents string, mtime time.Time) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func mustNoFilter(t *testing.T) *Filter {
	t.Helper()
	filter, err := NewFilter(profile.SyncRule{})
	require.NoError(t, err)
	return filter
}

func fileRecord(path string, size int64, mtime time.Time) FileRecord {
	return FileRecord{Path: path, Size: size, ModTime: mtime, Mode: 0644}
}

func dirRecord(path string, mtime time.Time) FileRecord {
	return FileRecord{Path: path, ModTime: mtime, Mode: 0755, IsDir: true}
}
