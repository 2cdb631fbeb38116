package serviceimpl

import (
	"testing"

	"drivesync/domain/models"
)

func TestDiffIncrementalOnlyAddsMissing(t *testing.T) {
	e := NewDiffEngine()

	source := []models.BaseFileInfo{
		{FileID: "s1", FileName: "a.jpg", FilePath: "/share/a.jpg"},
		{FileID: "s2", FileName: "b.jpg", FilePath: "/share/b.jpg"},
	}
	target := []models.BaseFileInfo{
		{FileID: "t1", FileName: "a.jpg", FilePath: "/personal/a.jpg"},
	}

	result := e.Diff(models.SyncMethodIncremental, source, target, "/share", "/personal", "root-id")

	if len(result.ToAdd) != 1 || result.ToAdd[0].Source.FileID != "s2" {
		t.Fatalf("expected only b.jpg queued to add, got %+v", result.ToAdd)
	}
	if len(result.ToDelete) != 0 {
		t.Fatalf("incremental mode must never delete, got %+v", result.ToDelete)
	}
}

func TestDiffFullDeletesTargetOnlyEntries(t *testing.T) {
	e := NewDiffEngine()

	source := []models.BaseFileInfo{
		{FileID: "s1", FileName: "a.jpg", FilePath: "/share/a.jpg"},
	}
	target := []models.BaseFileInfo{
		{FileID: "t1", FileName: "a.jpg", FilePath: "/personal/a.jpg"},
		{FileID: "t2", FileName: "stale.jpg", FilePath: "/personal/stale.jpg"},
	}

	result := e.Diff(models.SyncMethodFull, source, target, "/share", "/personal", "root-id")

	if len(result.ToAdd) != 0 {
		t.Fatalf("a.jpg already present at the matching relative path, expected no adds, got %+v", result.ToAdd)
	}
	if len(result.ToDelete) != 1 || result.ToDelete[0].Target.FileID != "t2" {
		t.Fatalf("expected stale.jpg queued to delete, got %+v", result.ToDelete)
	}
}

func TestDiffFullWithEmptySourceDeletesEverything(t *testing.T) {
	e := NewDiffEngine()

	target := []models.BaseFileInfo{
		{FileID: "t1", FileName: "a.jpg", FilePath: "/personal/a.jpg"},
		{FileID: "t2", FileName: "b.jpg", FilePath: "/personal/b.jpg"},
	}

	result := e.Diff(models.SyncMethodFull, nil, target, "/share", "/personal", "root-id")

	if len(result.ToDelete) != len(target) {
		t.Fatalf("an empty source in full mode must delete every target entry, got %+v", result.ToDelete)
	}
}

func TestDiffResolvesNestedParentID(t *testing.T) {
	e := NewDiffEngine()

	source := []models.BaseFileInfo{
		{FileID: "s1", FileName: "c.jpg", FilePath: "/share/sub/c.jpg"},
	}
	target := []models.BaseFileInfo{
		{FileID: "t-sub", FileName: "sub", FilePath: "/personal/sub", IsFolder: true},
	}

	result := e.Diff(models.SyncMethodIncremental, source, target, "/share", "/personal", "root-id")

	if len(result.ToAdd) != 1 {
		t.Fatalf("expected one add, got %+v", result.ToAdd)
	}
	add := result.ToAdd[0]
	if add.TargetParentFileID != "t-sub" {
		t.Fatalf("expected parent id resolved from the existing sub folder, got %q", add.TargetParentFileID)
	}
	if add.TargetFullPath != "/personal/sub/c.jpg" {
		t.Fatalf("unexpected target full path %q", add.TargetFullPath)
	}
}

func TestDiffMissingParentFallsBackToNearestAncestorID(t *testing.T) {
	e := NewDiffEngine()

	source := []models.BaseFileInfo{
		{FileID: "s1", FileName: "c.jpg", FilePath: "/share/newsub/c.jpg"},
	}

	result := e.Diff(models.SyncMethodIncremental, source, nil, "/share", "/personal", "root-id")

	if len(result.ToAdd) != 1 {
		t.Fatalf("expected one add, got %+v", result.ToAdd)
	}
	if result.ToAdd[0].TargetParentFileID != "root-id" {
		t.Fatalf("missing parent directory must resolve to the nearest existing ancestor's id, got %q", result.ToAdd[0].TargetParentFileID)
	}
	if result.ToAdd[0].TargetParentPath != "/personal/newsub" {
		t.Fatalf("unexpected target parent path %q", result.ToAdd[0].TargetParentPath)
	}
}

func TestDiffOverwriteFlattensAndDeletesEverythingExisting(t *testing.T) {
	e := NewDiffEngine()

	source := []models.BaseFileInfo{
		{FileID: "s1", FileName: "a.jpg", FilePath: "/share/sub/a.jpg"},
	}
	target := []models.BaseFileInfo{
		{FileID: "t1", FileName: "old.jpg", FilePath: "/personal/old.jpg"},
	}

	result := e.Diff(models.SyncMethodOverwrite, source, target, "/share", "/personal", "root-id")

	if len(result.ToDelete) != 1 || result.ToDelete[0].Target.FileID != "t1" {
		t.Fatalf("overwrite mode must delete every existing target entry, got %+v", result.ToDelete)
	}
	if len(result.ToAdd) != 1 {
		t.Fatalf("expected one add, got %+v", result.ToAdd)
	}
	if result.ToAdd[0].TargetFullPath != "/personal/a.jpg" {
		t.Fatalf("overwrite mode flattens source into the target root, got %q", result.ToAdd[0].TargetFullPath)
	}
	if result.ToAdd[0].TargetParentFileID != "root-id" {
		t.Fatalf("expected the target root id to be used as parent, got %q", result.ToAdd[0].TargetParentFileID)
	}
}
