/*
Package sync implements the synchronization engine. A run is a strictly
sequential pipeline:

1) Both locations are scanned into snapshots, applying the profile's filter
   rules during the walk.
2) The snapshots are diffed, classifying every path as new, modified,
   unchanged, or extraneous in the destination.
3) The classification plus the profile's mode and direction are turned into an
   ordered action list. Copies are ordered before deletes so that a delete
   never races a copy of the same path.
4) Each action is executed through the retry controller, pacing copies through
   the bandwidth throttle when a limit is configured. Per-entry failures
   accumulate in the result and never abort the run.

Bidirectional runs plan against the last-sync snapshot persisted by the
previous successful run. A path modified on both sides since then is a
conflict: the side with the later modification time wins, and the conflict is
recorded in the result.

The engine only deals with the two directory trees it's given. Mounting
network shares, pulling git repositories, and persisting profiles are the
caller's responsibility.
*/
package sync
