package sync

import (
	"sort"

	"github.com/fhnwtools/unisync/pkg/profile"
)

// PlanActions turns a classified diff and a sync mode into the ordered action
// list for a one-way run.
//
//	Mode     | New  | Modified         | Extraneous
//	Mirror   | Copy | Copy (overwrite) | Delete
//	Update   | Copy | Copy (overwrite) | Skip
//	Additive | Copy | Skip             | Skip
//
// Unchanged entries produce no action at all. Copies are ordered before
// deletes so that a delete never races a copy of the same path when a rename
// shows up as a copy/delete pair.
func PlanActions(diff []DiffEntry, mode profile.SyncMode) []SyncAction {
	var copies, skips, deletes []SyncAction

	for _, entry := range diff {
		switch entry.Class {
		case ClassUnchanged:
			continue

		case ClassNew:
			copies = append(copies, copyOrSkip(entry.Path, entry.Source, SideSource))

		case ClassModified:
			if mode == profile.ModeAdditive {
				skips = append(skips, SyncAction{
					Path: entry.Path, Kind: ActionSkip, Source: SideSource,
				})
				continue
			}
			copies = append(copies, copyOrSkip(entry.Path, entry.Source, SideSource))

		case ClassExtraneous:
			if mode == profile.ModeMirror {
				deletes = append(deletes, SyncAction{
					Path: entry.Path, Kind: ActionDelete, Source: SideSource,
				})
				continue
			}
			skips = append(skips, SyncAction{
				Path: entry.Path, Kind: ActionSkip, Source: SideSource,
			})
		}
	}

	return ordered(copies, skips, deletes)
}

// PlanBidirectional plans a two-way run against the last-sync snapshot from
// the previous successful run. A path modified on exactly one side since then
// propagates normally; a path modified on both sides is a conflict resolved
// by the later modification time and recorded. With no last-sync snapshot
// (first run) every difference counts as changed on both sides, so it's
// resolved the same way.
//
// The mode still gates what propagation may do: deletions only propagate in
// Mirror mode, and Additive never overwrites an existing file on either side.
func PlanBidirectional(source, dest, last Snapshot, mode profile.SyncMode) ([]SyncAction, []Conflict) {
	paths := make(map[string]struct{}, len(source)+len(dest)+len(last))
	for p := range source {
		paths[p] = struct{}{}
	}
	for p := range dest {
		paths[p] = struct{}{}
	}
	for p := range last {
		paths[p] = struct{}{}
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var copies, skips, deletes []SyncAction
	var conflicts []Conflict

	for _, p := range sorted {
		src, inSource := source[p]
		dst, inDest := dest[p]
		lastRec, inLast := last[p]

		srcChanged := changedSince(src, inSource, lastRec, inLast)
		dstChanged := changedSince(dst, inDest, lastRec, inLast)

		switch {
		case !srcChanged && !dstChanged:
			continue

		case srcChanged && !dstChanged:
			action, ok := propagate(p, src, inSource, inDest, SideSource, mode)
			if ok {
				appendAction(&copies, &skips, &deletes, action)
			}

		case dstChanged && !srcChanged:
			action, ok := propagate(p, dst, inDest, inSource, SideDestination, mode)
			if ok {
				appendAction(&copies, &skips, &deletes, action)
			}

		default: // changed on both sides
			if !inSource && !inDest {
				// Deleted on both sides: already converged.
				continue
			}
			if inSource && inDest && recordsEqual(src, dst) {
				// Both sides made the same change.
				continue
			}

			// Later modification time wins. A deleted side has the zero
			// time, so presence always beats deletion.
			winner := SideSource
			winnerRec, winnerPresent := src, inSource
			loserPresent := inDest
			if dst.ModTime.After(src.ModTime) || !inSource {
				winner = SideDestination
				winnerRec, winnerPresent = dst, inDest
				loserPresent = inSource
			}

			conflicts = append(conflicts, Conflict{
				Path:        p,
				SourceMtime: src.ModTime,
				DestMtime:   dst.ModTime,
				ChosenSide:  winner,
			})

			action, ok := propagate(p, winnerRec, winnerPresent, loserPresent, winner, mode)
			if ok {
				appendAction(&copies, &skips, &deletes, action)
			}
		}
	}

	return ordered(copies, skips, deletes), conflicts
}

// changedSince reports whether the side's record differs from the last-sync
// snapshot, counting creations and deletions as changes.
func changedSince(rec FileRecord, present bool, lastRec FileRecord, inLast bool) bool {
	if present != inLast {
		return true
	}
	if !present {
		return false
	}
	return !recordsEqual(rec, lastRec)
}

// propagate builds the action that carries one side's change to the other.
// The second return is false when nothing needs to happen.
func propagate(p string, rec FileRecord, present, targetExists bool,
	from Side, mode profile.SyncMode) (SyncAction, bool) {

	if present {
		if mode == profile.ModeAdditive && targetExists {
			return SyncAction{Path: p, Kind: ActionSkip, Source: from}, true
		}
		return copyOrSkip(p, rec, from), true
	}

	// The path was deleted on the changed side.
	if !targetExists {
		return SyncAction{}, false
	}
	if mode != profile.ModeMirror {
		return SyncAction{Path: p, Kind: ActionSkip, Source: from}, true
	}
	return SyncAction{Path: p, Kind: ActionDelete, Source: from}, true
}

// copyOrSkip downgrades symlink copies to skips: symlinks are recorded during
// scans but never transferred.
func copyOrSkip(p string, rec FileRecord, from Side) SyncAction {
	kind := ActionCopy
	if rec.IsSymlink {
		kind = ActionSkip
	}
	return SyncAction{Path: p, Kind: kind, Source: from, Record: rec}
}

func appendAction(copies, skips, deletes *[]SyncAction, action SyncAction) {
	switch action.Kind {
	case ActionCopy:
		*copies = append(*copies, action)
	case ActionDelete:
		*deletes = append(*deletes, action)
	default:
		*skips = append(*skips, action)
	}
}

// ordered assembles the final action list: copies in path order (parents
// before children, so directories exist before their contents), then skips,
// then deletes in reverse path order (children before parents).
func ordered(copies, skips, deletes []SyncAction) []SyncAction {
	byPath := func(actions []SyncAction) func(i, j int) bool {
		return func(i, j int) bool { return actions[i].Path < actions[j].Path }
	}
	sort.Slice(copies, byPath(copies))
	sort.Slice(skips, byPath(skips))
	sort.Slice(deletes, func(i, j int) bool { return deletes[i].Path > deletes[j].Path })

	actions := make([]SyncAction, 0, len(copies)+len(skips)+len(deletes))
	actions = append(actions, copies...)
	actions = append(actions, skips...)
	actions = append(actions, deletes...)
	return actions
}
