package services

import "drivesync/domain/models"

// ExclusionRule is the compiled form of a models.ExclusionRuleSpec, built
// once per sync run by RuleEngine.CompileExclusions.
type ExclusionRule struct {
	Pattern       string
	Target        models.MatchTarget
	ItemType      models.ItemType
	Mode          models.MatchMode
	CaseSensitive bool
}

// RenameRule is the compiled form of a models.RenameRuleSpec, built once
// per sync run by RuleEngine.CompileRenames.
type RenameRule struct {
	MatchRegex    string
	ReplaceString string
	TargetScope   models.RenameScope
	CaseSensitive bool
}

// Filter bundles a compiled exclusion rule set into the ItemFilter the
// provider client prunes recursion with.
type Filter interface {
	ItemFilter
}

// RuleEngine compiles JSON rule specs once per run and applies them: the
// exclusion filter both drops matching items from a listing and (via
// ItemFilter, passed down into C1) prunes excluded folders from recursion;
// rename rules rewrite the source listing in place before the diff.
type RuleEngine interface {
	CompileExclusions(specs []models.ExclusionRuleSpec) ([]ExclusionRule, error)
	CompileRenames(specs []models.RenameRuleSpec) ([]RenameRule, error)

	// NewFilter builds an ItemFilter from compiled exclusion rules, to be
	// handed to the provider client so excluded folders are pruned from
	// recursion rather than discarded after the fact.
	NewFilter(rules []ExclusionRule) Filter

	// ApplyExclusions drops every item any rule matches.
	ApplyExclusions(items []models.BaseFileInfo, rules []ExclusionRule) []models.BaseFileInfo

	// ApplyRenames rewrites file_name/file_path on items whose rename
	// rule produces a different value. Idempotent: applying the same
	// rule set twice yields the same output as applying it once.
	ApplyRenames(items []models.BaseFileInfo, rules []RenameRule) []models.BaseFileInfo
}
