package profile

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// SyncMode governs whether extraneous destination entries are deleted and
// whether existing files may be overwritten.
type SyncMode string

const (
	// ModeMirror makes the destination an exact filtered copy of the source,
	// deleting extra files.
	ModeMirror SyncMode = "mirror"

	// ModeUpdate copies new and changed files but never deletes.
	ModeUpdate SyncMode = "update"

	// ModeAdditive only adds new files. It never overwrites or deletes.
	ModeAdditive SyncMode = "additive"
)

// Valid returns whether the mode is one of the known values.
func (m SyncMode) Valid() bool {
	switch m {
	case ModeMirror, ModeUpdate, ModeAdditive:
		return true
	}
	return false
}

// SyncDirection describes which way files flow between the two locations.
type SyncDirection string

const (
	// DirectionRemoteToLocal copies from the remote location to the local one.
	DirectionRemoteToLocal SyncDirection = "remote_to_local"

	// DirectionLocalToRemote copies from the local location to the remote one.
	DirectionLocalToRemote SyncDirection = "local_to_remote"

	// DirectionBidirectional propagates changes both ways using the last-sync
	// snapshot to detect which side changed.
	DirectionBidirectional SyncDirection = "bidirectional"
)

// Valid returns whether the direction is one of the known values.
func (d SyncDirection) Valid() bool {
	switch d {
	case DirectionRemoteToLocal, DirectionLocalToRemote, DirectionBidirectional:
		return true
	}
	return false
}

// SyncLocation is one side of a sync: a directory plus whether it lives on a
// network mount.
type SyncLocation struct {
	Path     string `json:"path"`
	Name     string `json:"name,omitempty"`
	IsRemote bool   `json:"isRemote,omitempty"`
}

// SyncRule defines the filtering rules applied during a sync.
// An entry is kept iff it matches the includes (or none are configured) and
// doesn't match any exclude. Excludes always win.
type SyncRule struct {
	IncludePatterns []string `json:"includePatterns,omitempty"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
	ExcludeHidden   bool     `json:"excludeHidden,omitempty"`

	// FileExtensions restricts the sync to files with one of these extensions
	// (e.g. ".pdf"). Empty means all extensions. A missing leading dot is
	// tolerated.
	FileExtensions []string `json:"fileExtensions,omitempty"`

	// MinFileSize and MaxFileSize bound the sizes of synced files in bytes.
	// Zero means unbounded.
	MinFileSize int64 `json:"minFileSize,omitempty"`
	MaxFileSize int64 `json:"maxFileSize,omitempty"`
}

// SyncProfile is a complete sync configuration. It's immutable once a sync
// starts: the engine only ever reads it.
type SyncProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Source      SyncLocation  `json:"source"`
	Destination SyncLocation  `json:"destination"`
	Mode        SyncMode      `json:"mode"`
	Direction   SyncDirection `json:"direction"`
	Rules       SyncRule      `json:"rules,omitempty"`

	// BandwidthLimit paces copies in KB/s. Zero means unlimited.
	BandwidthLimit int64 `json:"bandwidthLimit,omitempty"`

	// MaxRetries bounds the total number of attempts for an action that keeps
	// failing transiently.
	MaxRetries int  `json:"maxRetries,omitempty"`
	DryRun     bool `json:"dryRun,omitempty"`

	PreservePermissions bool `json:"preservePermissions"`
	PreserveTimestamps  bool `json:"preserveTimestamps"`
	FollowSymlinks      bool `json:"followSymlinks,omitempty"`

	// AutoCommit commits local changes in the destination repository before
	// the post-sync pull; AutoPull runs the pull itself. Both are no-ops when
	// the destination isn't a git repository.
	AutoCommit bool `json:"autoCommit,omitempty"`
	AutoPull   bool `json:"autoPull,omitempty"`

	// Schedule is a cron expression for an external scheduler to run this
	// profile on. It's stored with the profile; the CLI itself never runs a
	// daemon.
	Schedule string `json:"schedule,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// DefaultMaxRetries is used when a profile doesn't configure retries.
const DefaultMaxRetries = 3

// New returns a profile with the defaults applied.
func New(name string) SyncProfile {
	return SyncProfile{
		Name:                name,
		Mode:                ModeUpdate,
		Direction:           DirectionRemoteToLocal,
		MaxRetries:          DefaultMaxRetries,
		PreservePermissions: true,
		PreserveTimestamps:  true,
		Enabled:             true,
	}
}

// Validate returns an error describing the first problem with the profile, or
// nil if it's runnable.
func (p SyncProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.MissingFieldError{Field: "name"}
	}
	if p.Source.Path == "" {
		return errors.MissingFieldError{Field: "source.path"}
	}
	if p.Destination.Path == "" {
		return errors.MissingFieldError{Field: "destination.path"}
	}
	if filepath.Clean(p.Source.Path) == filepath.Clean(p.Destination.Path) {
		return errors.New("source and destination cannot be the same path")
	}
	if !p.Mode.Valid() {
		return errors.NewFriendlyError("unknown sync mode %q: must be one of "+
			"mirror, update, or additive", p.Mode)
	}
	if !p.Direction.Valid() {
		return errors.NewFriendlyError("unknown sync direction %q: must be one of "+
			"remote_to_local, local_to_remote, or bidirectional", p.Direction)
	}
	if p.BandwidthLimit < 0 {
		return errors.New("bandwidth limit must be positive")
	}
	if p.MaxRetries < 0 {
		return errors.New("retry count cannot be negative")
	}
	if p.Rules.MinFileSize < 0 || p.Rules.MaxFileSize < 0 {
		return errors.New("file size bounds cannot be negative")
	}
	if p.Rules.MaxFileSize > 0 && p.Rules.MinFileSize > p.Rules.MaxFileSize {
		return errors.New("minimum file size exceeds maximum file size")
	}
	return nil
}
