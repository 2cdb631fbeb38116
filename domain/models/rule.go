package models

// ExclusionRuleSpec is the JSON shape a SyncConfig.Exclude column holds
// (serialized form of an ExclusionRule, before compilation).
type ExclusionRuleSpec struct {
	Pattern       string      `json:"pattern"`
	Target        MatchTarget `json:"target"`
	ItemType      ItemType    `json:"item_type"`
	Mode          MatchMode   `json:"mode"`
	CaseSensitive bool        `json:"case_sensitive"`
}

// RenameRuleSpec is the JSON shape a SyncConfig.Rename column holds
// (serialized form of a RenameRule, before compilation).
type RenameRuleSpec struct {
	MatchRegex    string      `json:"match_regex"`
	ReplaceString string      `json:"replace_string"`
	TargetScope   RenameScope `json:"target_scope"`
	CaseSensitive bool        `json:"case_sensitive"`
}

// SrcMeta is the JSON shape of SyncConfig.SrcMeta.
type SrcMeta struct {
	SourceType SourceType     `json:"source_type"`
	SourceID   string         `json:"source_id"`
	ExtParams  map[string]any `json:"ext_params,omitempty"`
}

// DstMeta is the JSON shape of SyncConfig.DstMeta.
type DstMeta struct {
	FileID string `json:"file_id,omitempty"`
}

// TaskNum is the JSON summary counters written to SyncTask.TaskNum once a
// run completes.
type TaskNum struct {
	AddedSuccess   int `json:"added_success"`
	AddedFail      int `json:"added_fail"`
	DeletedSuccess int `json:"deleted_success"`
	DeletedFail    int `json:"deleted_fail"`
}
