package sync

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/profile"
)

// Filter evaluates a profile's rules against candidate entries. Matching is
// case-sensitive glob matching over the slash-separated path relative to the
// location root. A pattern without a slash also matches against the entry's
// base name, so "*.tmp" excludes temp files anywhere in the tree.
type Filter struct {
	includes   []compiledPattern
	excludes   []compiledPattern
	extensions []string

	excludeHidden bool
	minSize       int64
	maxSize       int64
}

type compiledPattern struct {
	raw      string
	glob     glob.Glob
	basename bool
}

// NewFilter compiles the rule set. Invalid glob patterns are reported up
// front so that a sync fails fast instead of mid-walk.
func NewFilter(rules profile.SyncRule) (*Filter, error) {
	includes, err := compilePatterns(rules.IncludePatterns)
	if err != nil {
		return nil, errors.WithContext(err, "compile include patterns")
	}

	excludes, err := compilePatterns(rules.ExcludePatterns)
	if err != nil {
		return nil, errors.WithContext(err, "compile exclude patterns")
	}

	return &Filter{
		includes:      includes,
		excludes:      excludes,
		extensions:    normalizeExtensions(rules.FileExtensions),
		excludeHidden: rules.ExcludeHidden,
		minSize:       rules.MinFileSize,
		maxSize:       rules.MaxFileSize,
	}, nil
}

func normalizeExtensions(extensions []string) []string {
	var normalized []string
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %v", pattern, err)
		}
		compiled = append(compiled, compiledPattern{
			raw:      pattern,
			glob:     g,
			basename: !strings.Contains(pattern, "/"),
		})
	}
	return compiled, nil
}

func (p compiledPattern) matches(relPath string) bool {
	if p.glob.Match(relPath) {
		return true
	}
	return p.basename && p.glob.Match(path.Base(relPath))
}

// Keep returns whether the entry survives filtering. An entry is kept iff it
// is included and not excluded; exclusion always wins.
func (f *Filter) Keep(rec FileRecord) bool {
	return f.Include(rec) && !f.Exclude(rec)
}

// Include returns true if the entry matches the configured include patterns
// and file extensions; either list being empty means no restriction from it.
// Directories are always included so that a file-only rule like "*.pdf"
// doesn't prune the whole tree.
func (f *Filter) Include(rec FileRecord) bool {
	if rec.IsDir {
		return true
	}
	return f.matchesIncludes(rec.Path) && f.matchesExtensions(rec.Path)
}

func (f *Filter) matchesIncludes(relPath string) bool {
	if len(f.includes) == 0 {
		return true
	}
	for _, pattern := range f.includes {
		if pattern.matches(relPath) {
			return true
		}
	}
	return false
}

func (f *Filter) matchesExtensions(relPath string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(relPath))
	for _, allowed := range f.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Exclude returns true if any exclude pattern matches, the hidden-file policy
// excludes the entry, or its size falls outside the configured bounds.
func (f *Filter) Exclude(rec FileRecord) bool {
	for _, pattern := range f.excludes {
		if pattern.matches(rec.Path) {
			return true
		}
	}

	if f.excludeHidden && isHidden(rec.Path) {
		return true
	}

	if !rec.IsDir {
		if f.minSize > 0 && rec.Size < f.minSize {
			return true
		}
		if f.maxSize > 0 && rec.Size > f.maxSize {
			return true
		}
	}
	return false
}

// PruneDir returns whether the walk should skip the directory entirely. A
// pruned directory's contents are never visited.
func (f *Filter) PruneDir(relPath string) bool {
	for _, pattern := range f.excludes {
		if pattern.matches(relPath) {
			return true
		}
	}
	return f.excludeHidden && isHidden(relPath)
}

func isHidden(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
