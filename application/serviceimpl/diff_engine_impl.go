package serviceimpl

import (
	"path"
	"sort"
	"strings"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

type diffEngine struct{}

// NewDiffEngine returns the tree-diff engine grounded on compare_drive_lists
// in the reference sync service, with one deliberate correction: full-mode
// to_delete is computed by testing target relative paths against the
// source's relative-path set, matching the stated semantics (§4.5, S3) —
// the reference's own comparison there is tautologically false and so
// never actually deletes anything, which would violate the documented
// empty-source/full-mode boundary case if copied verbatim.
func NewDiffEngine() services.DiffEngine {
	return &diffEngine{}
}

func relPath(full, base string) string {
	full = strings.TrimSuffix(full, "/")
	base = strings.TrimSuffix(base, "/")
	if base == "" || base == "/" {
		return strings.TrimPrefix(full, "/")
	}
	rel := strings.TrimPrefix(full, base)
	return strings.TrimPrefix(rel, "/")
}

func (e *diffEngine) Diff(mode models.SyncMethod, source, target []models.BaseFileInfo, sourceBase, targetBase, targetRootID string) services.DiffResult {
	if mode == models.SyncMethodOverwrite {
		return e.diffOverwrite(source, target, targetBase, targetRootID)
	}

	targetByRel := make(map[string]models.BaseFileInfo, len(target))
	targetPathToID := make(map[string]string, len(target))
	for _, t := range target {
		rel := relPath(t.FilePath, targetBase)
		targetByRel[rel] = t
		targetPathToID[t.FilePath] = t.FileID
	}
	targetPathToID[strings.TrimSuffix(targetBase, "/")] = targetRootID
	targetPathToID[targetBase] = targetRootID

	toAdd := make([]services.AddItem, 0)
	for _, s := range source {
		rel := relPath(s.FilePath, sourceBase)
		if _, exists := targetByRel[rel]; exists {
			continue
		}
		toAdd = append(toAdd, buildAddItem(s, rel, targetBase, targetPathToID))
	}
	sort.Slice(toAdd, func(i, j int) bool {
		return toAdd[i].Source.FilePath < toAdd[j].Source.FilePath
	})

	result := services.DiffResult{ToAdd: toAdd}

	if mode == models.SyncMethodFull {
		sourceRel := make(map[string]struct{}, len(source))
		for _, s := range source {
			sourceRel[relPath(s.FilePath, sourceBase)] = struct{}{}
		}
		toDelete := make([]services.DeleteItem, 0)
		for _, t := range target {
			rel := relPath(t.FilePath, targetBase)
			if _, exists := sourceRel[rel]; !exists {
				toDelete = append(toDelete, services.DeleteItem{Target: t})
			}
		}
		result.ToDelete = toDelete
	}

	return result
}

// buildAddItem resolves target_parent_file_id by walking up the target
// path map until an existing ancestor is found, falling back to the
// target root id when the parent is the root itself.
func buildAddItem(s models.BaseFileInfo, rel, targetBase string, targetPathToID map[string]string) services.AddItem {
	targetFullPath := joinPath(targetBase, rel)
	targetParentPath := path.Dir(targetFullPath)

	parentID := resolveAncestorID(targetParentPath, targetBase, targetPathToID)

	return services.AddItem{
		Source:             s,
		TargetFullPath:     targetFullPath,
		TargetParentPath:   targetParentPath,
		TargetParentFileID: parentID,
	}
}

func resolveAncestorID(p, targetBase string, targetPathToID map[string]string) string {
	normBase := strings.TrimSuffix(targetBase, "/")
	for {
		if id, ok := targetPathToID[p]; ok {
			return id
		}
		if p == normBase || p == "/" || p == "." {
			if id, ok := targetPathToID[normBase]; ok {
				return id
			}
			return ""
		}
		parent := path.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

func joinPath(base, rel string) string {
	base = strings.TrimSuffix(base, "/")
	if rel == "" {
		return base
	}
	return base + "/" + rel
}

// diffOverwrite implements §4.5's intentionally non-recursive overwrite
// mode: only the top level is considered on both sides, no rename/exclude
// rules apply beyond what the caller already did, and every source child
// flattens directly into the target root.
func (e *diffEngine) diffOverwrite(source, target []models.BaseFileInfo, targetBase, targetRootID string) services.DiffResult {
	toDelete := make([]services.DeleteItem, 0, len(target))
	for _, t := range target {
		toDelete = append(toDelete, services.DeleteItem{Target: t})
	}

	toAdd := make([]services.AddItem, 0, len(source))
	for _, s := range source {
		toAdd = append(toAdd, services.AddItem{
			Source:             s,
			TargetFullPath:     joinPath(targetBase, s.FileName),
			TargetParentPath:   strings.TrimSuffix(targetBase, "/"),
			TargetParentFileID: targetRootID,
		})
	}
	sort.Slice(toAdd, func(i, j int) bool {
		return toAdd[i].Source.FilePath < toAdd[j].Source.FilePath
	})

	return services.DiffResult{ToAdd: toAdd, ToDelete: toDelete}
}
