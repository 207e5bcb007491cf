package sync

import (
	"fmt"
	"time"
)

// FileRecord is the scan-time metadata for one entry, keyed by its
// slash-separated path relative to the location root. Records are produced
// fresh by each scan and never persisted by the engine itself; the last-sync
// snapshot side table is the one exception.
type FileRecord struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	Mode      uint32    `json:"mode,omitempty"`
	IsDir     bool      `json:"isDir,omitempty"`
	IsSymlink bool      `json:"isSymlink,omitempty"`
}

// Snapshot is a collection of file records keyed by relative path.
type Snapshot map[string]FileRecord

// Add updates the snapshot.
func (s Snapshot) Add(rec FileRecord) {
	s[rec.Path] = rec
}

// ScanError records a per-entry failure during a tree walk. Scan errors never
// abort the scan.
type ScanError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ActionKind is what the retry controller should do for a path.
type ActionKind string

const (
	// ActionCopy transfers the whole file (or creates the directory) on the
	// target side.
	ActionCopy ActionKind = "copy"

	// ActionDelete removes the entry from the target side, recursively for
	// directories.
	ActionDelete ActionKind = "delete"

	// ActionSkip records that the entry was deliberately left alone.
	ActionSkip ActionKind = "skip"
)

// Side names one of the profile's two locations.
type Side string

const (
	// SideSource is the profile's source location.
	SideSource Side = "source"

	// SideDestination is the profile's destination location.
	SideDestination Side = "destination"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideSource {
		return SideDestination
	}
	return SideSource
}

// SyncAction is one planned operation. For Copy actions, Source names the
// side holding the authoritative version; the copy lands on the opposite
// side. Delete actions remove the path from the side opposite to Source.
type SyncAction struct {
	Path   string     `json:"path"`
	Kind   ActionKind `json:"kind"`
	Source Side       `json:"source"`

	// Record is the file record driving the action. It's the zero value for
	// deletes.
	Record FileRecord `json:"record,omitempty"`
}

// ActionError is a per-entry failure recorded into the result.
type ActionError struct {
	Action SyncAction
	Err    error
}

func (err ActionError) Error() string {
	return fmt.Sprintf("%s %q: %s", err.Action.Kind, err.Action.Path, err.Err)
}

// Conflict records a path that was modified on both sides since the last
// successful sync. Conflicts are resolved automatically (later modification
// time wins) but always surfaced to the caller.
type Conflict struct {
	Path        string    `json:"path"`
	SourceMtime time.Time `json:"sourceMtime"`
	DestMtime   time.Time `json:"destMtime"`
	ChosenSide  Side      `json:"chosenSide"`
}

// SyncResult summarizes a finished run. It's immutable once returned.
type SyncResult struct {
	Copied  int
	Deleted int
	Skipped int
	Failed  int

	BytesTransferred int64

	Errors     []ActionError
	Conflicts  []Conflict
	ScanErrors []ScanError

	// Actions is the planned action list. It's what a dry run previews.
	Actions []SyncAction

	Duration  time.Duration
	DryRun    bool
	Cancelled bool
}
