package sync

import (
	"sort"
	"time"
)

// ModTimeTolerance absorbs filesystem timestamp granularity differences
// (FAT stores 2s resolution, some network filesystems truncate sub-second
// precision). Modification times within the tolerance compare equal.
const ModTimeTolerance = time.Second

// Classification is what the diff planner decided about one path.
type Classification string

const (
	// ClassNew means the path is present only in the source.
	ClassNew Classification = "new"

	// ClassModified means the path is present on both sides with differing
	// size or modification time.
	ClassModified Classification = "modified"

	// ClassUnchanged means both sides agree on size and modification time.
	ClassUnchanged Classification = "unchanged"

	// ClassExtraneous means the path is present only in the destination.
	ClassExtraneous Classification = "extraneous"
)

// DiffEntry is the classification of a single path together with the records
// that produced it. The record for a side the path is absent from is the zero
// value.
type DiffEntry struct {
	Path   string
	Class  Classification
	Source FileRecord
	Dest   FileRecord

	InSource bool
	InDest   bool
}

// Classify compares the two snapshots and classifies every path in their
// union. Entries are returned sorted by path so that planning is
// deterministic.
func Classify(source, dest Snapshot) []DiffEntry {
	paths := make(map[string]struct{}, len(source)+len(dest))
	for p := range source {
		paths[p] = struct{}{}
	}
	for p := range dest {
		paths[p] = struct{}{}
	}

	entries := make([]DiffEntry, 0, len(paths))
	for p := range paths {
		src, inSource := source[p]
		dst, inDest := dest[p]

		entry := DiffEntry{
			Path:     p,
			Source:   src,
			Dest:     dst,
			InSource: inSource,
			InDest:   inDest,
		}

		switch {
		case inSource && !inDest:
			entry.Class = ClassNew
		case !inSource && inDest:
			entry.Class = ClassExtraneous
		case recordsEqual(src, dst):
			entry.Class = ClassUnchanged
		default:
			entry.Class = ClassModified
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// recordsEqual reports whether two records describe the same content. A size
// mismatch always wins: it yields Modified even when the modification times
// appear equal.
func recordsEqual(a, b FileRecord) bool {
	if a.IsDir != b.IsDir {
		return false
	}
	if a.IsDir {
		// Two directories are interchangeable; their mtimes churn with
		// unrelated writes inside them.
		return true
	}
	if a.Size != b.Size {
		return false
	}
	return mtimeEqual(a.ModTime, b.ModTime)
}

func mtimeEqual(a, b time.Time) bool {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return delta <= ModTimeTolerance
}
