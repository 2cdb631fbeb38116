package services

import "drivesync/domain/models"

// AddItem is one entry of DiffResult.ToAdd: a source item paired with its
// resolved destination in the target tree.
type AddItem struct {
	Source models.BaseFileInfo

	// TargetFullPath/TargetParentPath are relative-path-derived absolute
	// paths under the target base.
	TargetFullPath   string
	TargetParentPath string

	// TargetParentFileID is resolved by walking up the target map until
	// an existing ancestor is found; empty means the directory chain has
	// not been materialized yet (C6 fills this in during step 7).
	TargetParentFileID string
}

// DeleteItem is one entry of DiffResult.ToDelete: a target item with no
// corresponding source item.
type DeleteItem struct {
	Target models.BaseFileInfo
}

// DiffResult is the output of one Diff call. ToUpdate and ToRename are
// always empty: the reference implementation this behavior is grounded on
// initializes but never populates them, and rename rules are applied to the
// source before diffing rather than expressed as a diff-time operation.
type DiffResult struct {
	ToAdd    []AddItem
	ToDelete []DeleteItem
	ToUpdate []models.BaseFileInfo
	ToRename []models.BaseFileInfo
}

// DiffEngine produces (to_add, to_delete) from two listings under a chosen
// sync method. Relative path — full path with the base prefix removed — is
// always the join key, so identical tree positions line up regardless of
// where the two roots actually live.
type DiffEngine interface {
	// Diff compares source (already rename-rule-applied) against target
	// under mode. sourceBase/targetBase are the absolute root paths used
	// to compute relative paths; targetRootID is the file id of
	// targetBase itself, used as the fallback parent id for top-level
	// adds when no ancestor appears in the target listing.
	Diff(mode models.SyncMethod, source, target []models.BaseFileInfo, sourceBase, targetBase, targetRootID string) DiffResult
}
