// Package network verifies that sync locations are reachable and manages
// credentials for network shares. It never mounts anything itself: mounting
// and VPN dialing stay with the operating system, and the engine simply fails
// fast when a root is missing.
package network

import (
	"io"

	"github.com/spf13/afero"
	keyring "github.com/zalando/go-keyring"

	"github.com/fhnwtools/unisync/pkg/errors"
	"github.com/fhnwtools/unisync/pkg/profile"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// keyringService namespaces this tool's entries in the system keychain.
const keyringService = "unisync"

// EnsureReachable verifies that the location resolves to an accessible
// directory. A missing remote root is reported as the network being
// unavailable; a missing local one as a plain missing path.
func EnsureReachable(loc profile.SyncLocation) error {
	info, err := fs.Stat(loc.Path)
	if err != nil || !info.IsDir() {
		if loc.IsRemote {
			return errors.NetworkUnavailable{Path: loc.Path}
		}
		return errors.PathNotFound{Path: loc.Path}
	}

	// Stat can succeed on a stale mount point; opening the directory forces
	// a round trip to the filesystem actually backing it.
	dir, err := fs.Open(loc.Path)
	if err != nil {
		if loc.IsRemote {
			return errors.NetworkUnavailable{Path: loc.Path}
		}
		return errors.WithContext(errors.ClassifyIO(loc.Path, err), "open location")
	}
	defer dir.Close()

	// An empty directory returns io.EOF, which is fine.
	if _, err := dir.Readdirnames(1); err != nil && err != io.EOF {
		if loc.IsRemote {
			return errors.NetworkUnavailable{Path: loc.Path}
		}
	}
	return nil
}

// SetShareCredential stores the username to use for a network share in the
// system keychain.
func SetShareCredential(share, username string) error {
	if err := keyring.Set(keyringService, share, username); err != nil {
		return errors.WithContext(err, "store credential")
	}
	return nil
}

// ShareCredential returns the stored username for a network share.
func ShareCredential(share string) (string, error) {
	username, err := keyring.Get(keyringService, share)
	if err != nil {
		return "", errors.WithContext(err, "look up credential")
	}
	return username, nil
}

// DeleteShareCredential removes the stored username for a network share.
func DeleteShareCredential(share string) error {
	if err := keyring.Delete(keyringService, share); err != nil {
		return errors.WithContext(err, "delete credential")
	}
	return nil
}
