package errors

import (
	goErrors "errors"
	"fmt"
	"os"
	"syscall"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// PathNotFound represents when a sync root doesn't resolve to an accessible
// directory. It's fatal: the engine aborts before scanning anything.
type PathNotFound struct {
	Path string
}

func (err PathNotFound) Error() string {
	return fmt.Sprintf("path %q does not exist", err.Path)
}

// FriendlyMessage implements the friendly error interface.
func (err PathNotFound) FriendlyMessage() string {
	return fmt.Sprintf("%q doesn't exist or isn't a directory.\n"+
		"Check the profile's source and destination paths.", err.Path)
}

// NetworkUnavailable represents when a remote sync root isn't reachable,
// usually because the network share isn't mounted.
type NetworkUnavailable struct {
	Path string
}

func (err NetworkUnavailable) Error() string {
	return fmt.Sprintf("remote location %q is not reachable", err.Path)
}

// FriendlyMessage implements the friendly error interface.
func (err NetworkUnavailable) FriendlyMessage() string {
	return fmt.Sprintf("The remote location %q isn't reachable.\n"+
		"Make sure the network share is mounted and the VPN is connected.", err.Path)
}

// PermissionDenied represents a per-entry permission failure. It's permanent:
// retrying won't help, but it never aborts the run.
type PermissionDenied struct {
	Path string
}

func (err PermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: %q", err.Path)
}

// TransientIO represents a failure that's expected to succeed on retry, such
// as a source file vanishing mid-copy. Once retries are exhausted it's
// recorded as a permanent failure for the entry.
type TransientIO struct {
	Path string
	Err  error
}

func (err TransientIO) Error() string {
	return fmt.Sprintf("transient I/O error on %q: %s", err.Path, err.Err)
}

// Unwrap returns the underlying filesystem error.
func (err TransientIO) Unwrap() error {
	return err.Err
}

// PermanentIO represents a filesystem failure that retrying cannot fix, such
// as writing through a read-only mount. It's recorded for the entry on the
// first attempt.
type PermanentIO struct {
	Path string
	Err  error
}

func (err PermanentIO) Error() string {
	return fmt.Sprintf("i/o error on %q: %s", err.Path, err.Err)
}

// Unwrap returns the underlying filesystem error.
func (err PermanentIO) Unwrap() error {
	return err.Err
}

// SizeOrSpace represents the destination filesystem running out of space.
type SizeOrSpace struct {
	Path string
	Err  error
}

func (err SizeOrSpace) Error() string {
	return fmt.Sprintf("no space left writing %q: %s", err.Path, err.Err)
}

// Unwrap returns the underlying filesystem error.
func (err SizeOrSpace) Unwrap() error {
	return err.Err
}

// SyncInProgress represents an attempt to start a second sync for a profile
// that already has one running.
type SyncInProgress struct {
	Profile string
}

func (err SyncInProgress) Error() string {
	return fmt.Sprintf("a sync is already running for profile %q", err.Profile)
}

// FriendlyMessage implements the friendly error interface.
func (err SyncInProgress) FriendlyMessage() string {
	return fmt.Sprintf("A sync is already running for profile %q. "+
		"Wait for it to finish before starting another one.", err.Profile)
}

// IsTransient returns whether the error should be retried.
func IsTransient(err error) bool {
	for err != nil {
		if _, ok := err.(TransientIO); ok {
			return true
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// ClassifyIO maps a raw filesystem error for path into the sync error
// taxonomy. A vanished file is transient, permission and disk-space problems
// are permanent, and anything else is treated as retryable I/O.
func ClassifyIO(path string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case os.IsPermission(err):
		return PermissionDenied{Path: path}
	case goErrors.Is(err, syscall.ENOSPC):
		return SizeOrSpace{Path: path, Err: err}
	case goErrors.Is(err, syscall.EISDIR),
		goErrors.Is(err, syscall.ENOTDIR),
		goErrors.Is(err, syscall.EROFS):
		// Deterministic failures: retrying a write through a read-only mount
		// or against the wrong entry type can't succeed.
		return PermanentIO{Path: path, Err: err}
	default:
		// Covers os.IsNotExist (the entry vanished between the scan and the
		// copy) as well as generic I/O hiccups worth a retry.
		return TransientIO{Path: path, Err: err}
	}
}
