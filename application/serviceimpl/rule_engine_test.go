package serviceimpl

import (
	"testing"

	"drivesync/domain/models"
)

func TestCompileExclusionsRejectsInvalidRegex(t *testing.T) {
	e := NewRuleEngine()
	_, err := e.CompileExclusions([]models.ExclusionRuleSpec{
		{Pattern: "(unclosed", Mode: models.MatchModeRegex},
	})
	if err == nil {
		t.Fatal("expected error for invalid regex pattern")
	}
}

func TestApplyExclusionsByNameExact(t *testing.T) {
	e := NewRuleEngine()
	rules, err := e.CompileExclusions([]models.ExclusionRuleSpec{
		{Pattern: "thumbs.db", Target: models.MatchTargetName, ItemType: models.ItemTypeFile, Mode: models.MatchModeExact},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	items := []models.BaseFileInfo{
		{FileName: "thumbs.db", FilePath: "/a/thumbs.db"},
		{FileName: "photo.jpg", FilePath: "/a/photo.jpg"},
	}

	out := e.ApplyExclusions(items, rules)
	if len(out) != 1 || out[0].FileName != "photo.jpg" {
		t.Fatalf("expected only photo.jpg to survive, got %+v", out)
	}
}

func TestApplyExclusionsExtensionIgnoresFolders(t *testing.T) {
	e := NewRuleEngine()
	rules, err := e.CompileExclusions([]models.ExclusionRuleSpec{
		{Pattern: "tmp", Target: models.MatchTargetExtension, ItemType: models.ItemTypeAny, Mode: models.MatchModeExact},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	items := []models.BaseFileInfo{
		{FileName: "cache.tmp", FilePath: "/a/cache.tmp", IsFolder: false},
		{FileName: "tmp", FilePath: "/a/tmp", IsFolder: true},
	}

	out := e.ApplyExclusions(items, rules)
	if len(out) != 1 || out[0].FileName != "tmp" {
		t.Fatalf("expected folder named tmp to survive (extension match never applies to folders), got %+v", out)
	}
}

func TestApplyExclusionsWildcard(t *testing.T) {
	e := NewRuleEngine()
	rules, err := e.CompileExclusions([]models.ExclusionRuleSpec{
		{Pattern: "*.bak", Target: models.MatchTargetName, ItemType: models.ItemTypeFile, Mode: models.MatchModeWildcard},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	items := []models.BaseFileInfo{
		{FileName: "report.bak", FilePath: "/r/report.bak"},
		{FileName: "report.bak.txt", FilePath: "/r/report.bak.txt"},
	}

	out := e.ApplyExclusions(items, rules)
	if len(out) != 1 || out[0].FileName != "report.bak.txt" {
		t.Fatalf("wildcard should anchor the whole name, got %+v", out)
	}
}

func TestApplyRenamesNameScopeUpdatesPath(t *testing.T) {
	e := NewRuleEngine()
	rules, err := e.CompileRenames([]models.RenameRuleSpec{
		{MatchRegex: `^IMG_`, ReplaceString: "photo_", TargetScope: models.RenameScopeName},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	items := []models.BaseFileInfo{
		{FileName: "IMG_001.jpg", FilePath: "/share/IMG_001.jpg"},
	}

	out := e.ApplyRenames(items, rules)
	if out[0].FileName != "photo_001.jpg" {
		t.Fatalf("expected renamed file name, got %q", out[0].FileName)
	}
	if out[0].FilePath != "/share/photo_001.jpg" {
		t.Fatalf("expected rename to also update file path, got %q", out[0].FilePath)
	}
}

func TestApplyRenamesIsIdempotent(t *testing.T) {
	e := NewRuleEngine()
	rules, err := e.CompileRenames([]models.RenameRuleSpec{
		{MatchRegex: `^IMG_`, ReplaceString: "photo_", TargetScope: models.RenameScopeName},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	items := []models.BaseFileInfo{{FileName: "IMG_001.jpg", FilePath: "/share/IMG_001.jpg"}}
	once := e.ApplyRenames(items, rules)
	twice := e.ApplyRenames(once, rules)

	if once[0].FileName != twice[0].FileName || once[0].FilePath != twice[0].FilePath {
		t.Fatalf("reapplying the same rules should be a no-op, got %+v then %+v", once[0], twice[0])
	}
}
