package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhnwtools/unisync/pkg/profile"
)

func kindsByPath(actions []SyncAction) map[string]ActionKind {
	kinds := map[string]ActionKind{}
	for _, action := range actions {
		kinds[action.Path] = action.Kind
	}
	return kinds
}

func TestPlanActionsModes(t *testing.T) {
	diff := []DiffEntry{
		{Path: "added.txt", Class: ClassNew,
			Source: fileRecord("added.txt", 10, baseTime)},
		{Path: "changed.txt", Class: ClassModified,
			Source: fileRecord("changed.txt", 20, baseTime)},
		{Path: "same.txt", Class: ClassUnchanged},
		{Path: "stale.txt", Class: ClassExtraneous},
	}

	tests := []struct {
		mode profile.SyncMode
		want map[string]ActionKind
	}{
		{profile.ModeMirror, map[string]ActionKind{
			"added.txt":   ActionCopy,
			"changed.txt": ActionCopy,
			"stale.txt":   ActionDelete,
		}},
		{profile.ModeUpdate, map[string]ActionKind{
			"added.txt":   ActionCopy,
			"changed.txt": ActionCopy,
			"stale.txt":   ActionSkip,
		}},
		{profile.ModeAdditive, map[string]ActionKind{
			"added.txt":   ActionCopy,
			"changed.txt": ActionSkip,
			"stale.txt":   ActionSkip,
		}},
	}

	for _, test := range tests {
		t.Run(string(test.mode), func(t *testing.T) {
			actions := PlanActions(diff, test.mode)
			assert.Equal(t, test.want, kindsByPath(actions))

			// Unchanged entries never become actions.
			assert.NotContains(t, kindsByPath(actions), "same.txt")
		})
	}
}

func TestPlanActionsOrdering(t *testing.T) {
	diff := []DiffEntry{
		{Path: "b/inner.txt", Class: ClassNew,
			Source: fileRecord("b/inner.txt", 1, baseTime)},
		{Path: "b", Class: ClassNew, Source: dirRecord("b", baseTime)},
		{Path: "z", Class: ClassExtraneous},
		{Path: "z/nested.txt", Class: ClassExtraneous},
		{Path: "a.txt", Class: ClassNew, Source: fileRecord("a.txt", 1, baseTime)},
	}

	actions := PlanActions(diff, profile.ModeMirror)

	var paths []string
	for _, action := range actions {
		paths = append(paths, action.Path)
	}
	// Copies ascend so parent directories come first; deletes descend so
	// children are removed before their parents.
	assert.Equal(t, []string{"a.txt", "b", "b/inner.txt", "z/nested.txt", "z"}, paths)
}

func TestPlanActionsSymlinksAreSkipped(t *testing.T) {
	link := fileRecord("link", 0, baseTime)
	link.IsSymlink = true

	actions := PlanActions([]DiffEntry{
		{Path: "link", Class: ClassNew, Source: link},
	}, profile.ModeMirror)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionSkip, actions[0].Kind)
}

func TestPlanBidirectionalPropagatesSingleSideChanges(t *testing.T) {
	last := Snapshot{
		"shared.txt":  fileRecord("shared.txt", 10, baseTime),
		"deleted.txt": fileRecord("deleted.txt", 5, baseTime),
	}
	source := Snapshot{
		"shared.txt":  fileRecord("shared.txt", 12, baseTime.Add(time.Hour)),
		"deleted.txt": fileRecord("deleted.txt", 5, baseTime),
		"srcnew.txt":  fileRecord("srcnew.txt", 3, baseTime.Add(time.Hour)),
	}
	dest := Snapshot{
		"shared.txt": fileRecord("shared.txt", 10, baseTime),
		"dstnew.txt": fileRecord("dstnew.txt", 4, baseTime.Add(time.Hour)),
	}

	actions, conflicts := PlanBidirectional(source, dest, last, profile.ModeMirror)
	assert.Empty(t, conflicts)

	bySide := map[string]Side{}
	for _, action := range actions {
		bySide[action.Path] = action.Source
	}

	kinds := kindsByPath(actions)
	assert.Equal(t, ActionCopy, kinds["shared.txt"])
	assert.Equal(t, SideSource, bySide["shared.txt"])
	assert.Equal(t, ActionCopy, kinds["srcnew.txt"])
	assert.Equal(t, SideSource, bySide["srcnew.txt"])
	assert.Equal(t, ActionCopy, kinds["dstnew.txt"])
	assert.Equal(t, SideDestination, bySide["dstnew.txt"])

	// deleted.txt was removed on the destination, so Mirror deletes it from
	// the source.
	assert.Equal(t, ActionDelete, kinds["deleted.txt"])
	assert.Equal(t, SideDestination, bySide["deleted.txt"])
}

func TestPlanBidirectionalConflictLaterMtimeWins(t *testing.T) {
	last := Snapshot{"report.txt": fileRecord("report.txt", 10, baseTime)}
	source := Snapshot{"report.txt": fileRecord("report.txt", 11, baseTime.Add(time.Minute))}
	dest := Snapshot{"report.txt": fileRecord("report.txt", 12, baseTime.Add(time.Hour))}

	actions, conflicts := PlanBidirectional(source, dest, last, profile.ModeUpdate)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "report.txt", conflicts[0].Path)
	assert.Equal(t, SideDestination, conflicts[0].ChosenSide)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCopy, actions[0].Kind)
	assert.Equal(t, SideDestination, actions[0].Source)
}

func TestPlanBidirectionalConflictPresenceBeatsDeletion(t *testing.T) {
	// Modified on the source, deleted on the destination. The surviving copy
	// wins regardless of timestamps.
	last := Snapshot{"keep.txt": fileRecord("keep.txt", 10, baseTime)}
	source := Snapshot{"keep.txt": fileRecord("keep.txt", 11, baseTime.Add(time.Minute))}
	dest := Snapshot{}

	actions, conflicts := PlanBidirectional(source, dest, last, profile.ModeMirror)

	require.Len(t, conflicts, 1)
	assert.Equal(t, SideSource, conflicts[0].ChosenSide)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionCopy, actions[0].Kind)
	assert.Equal(t, SideSource, actions[0].Source)
}

func TestPlanBidirectionalBothDeleted(t *testing.T) {
	last := Snapshot{"gone.txt": fileRecord("gone.txt", 10, baseTime)}

	actions, conflicts := PlanBidirectional(Snapshot{}, Snapshot{}, last, profile.ModeMirror)
	assert.Empty(t, actions)
	assert.Empty(t, conflicts)
}

func TestPlanBidirectionalIdenticalChanges(t *testing.T) {
	last := Snapshot{"doc.txt": fileRecord("doc.txt", 10, baseTime)}
	rec := fileRecord("doc.txt", 20, baseTime.Add(time.Hour))
	source := Snapshot{"doc.txt": rec}
	dest := Snapshot{"doc.txt": rec}

	actions, conflicts := PlanBidirectional(source, dest, last, profile.ModeMirror)
	assert.Empty(t, actions)
	assert.Empty(t, conflicts)
}

func TestPlanBidirectionalFirstRunTreatsDiffsAsConflicts(t *testing.T) {
	// No last-sync snapshot: every one-sided file counts as created on that
	// side, and differing shared files are conflicts.
	source := Snapshot{
		"both.txt": fileRecord("both.txt", 10, baseTime.Add(time.Hour)),
		"src.txt":  fileRecord("src.txt", 5, baseTime),
	}
	dest := Snapshot{
		"both.txt": fileRecord("both.txt", 12, baseTime),
		"dst.txt":  fileRecord("dst.txt", 6, baseTime),
	}

	actions, conflicts := PlanBidirectional(source, dest, nil, profile.ModeUpdate)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "both.txt", conflicts[0].Path)
	assert.Equal(t, SideSource, conflicts[0].ChosenSide)

	kinds := kindsByPath(actions)
	assert.Equal(t, ActionCopy, kinds["both.txt"])
	assert.Equal(t, ActionCopy, kinds["src.txt"])
	assert.Equal(t, ActionCopy, kinds["dst.txt"])
}

func TestPlanBidirectionalModeGating(t *testing.T) {
	last := Snapshot{
		"overwrite.txt": fileRecord("overwrite.txt", 10, baseTime),
		"removed.txt":   fileRecord("removed.txt", 5, baseTime),
	}
	source := Snapshot{
		"overwrite.txt": fileRecord("overwrite.txt", 11, baseTime.Add(time.Hour)),
	}
	dest := Snapshot{
		"overwrite.txt": fileRecord("overwrite.txt", 10, baseTime),
		"removed.txt":   fileRecord("removed.txt", 5, baseTime),
	}

	// Additive never overwrites and never deletes.
	actions, _ := PlanBidirectional(source, dest, last, profile.ModeAdditive)
	kinds := kindsByPath(actions)
	assert.Equal(t, ActionSkip, kinds["overwrite.txt"])
	assert.Equal(t, ActionSkip, kinds["removed.txt"])

	// Update overwrites but still refuses to delete.
	actions, _ = PlanBidirectional(source, dest, last, profile.ModeUpdate)
	kinds = kindsByPath(actions)
	assert.Equal(t, ActionCopy, kinds["overwrite.txt"])
	assert.Equal(t, ActionSkip, kinds["removed.txt"])
}
