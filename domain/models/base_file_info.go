package models

// BaseFileInfo is the canonical, transient shape passed between the provider
// client, rule engine, diff engine, and sync executor. It is never persisted
// directly; FileCache and SyncTaskItem are its durable projections.
type BaseFileInfo struct {
	FileID    string
	FileName  string
	FilePath  string // absolute, forward-slash separated
	IsFolder  bool
	FileSize  int64
	ParentID  string
	CreatedAt string
	UpdatedAt string

	// FileExt carries provider-specific transfer hints accumulated while
	// walking a share tree: msg_id, from_uk, share_fid_token,
	// share_parent_fid, and similar opaque values a later transfer() call
	// needs. It is never interpreted by the diff engine itself.
	FileExt map[string]any
}

// Ext returns the string value at key, or "" if absent or not a string.
func (f BaseFileInfo) Ext(key string) string {
	if f.FileExt == nil {
		return ""
	}
	v, ok := f.FileExt[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// WithExt returns a copy of f with key set to value in FileExt.
func (f BaseFileInfo) WithExt(key string, value any) BaseFileInfo {
	out := f
	out.FileExt = make(map[string]any, len(f.FileExt)+1)
	for k, v := range f.FileExt {
		out.FileExt[k] = v
	}
	out.FileExt[key] = value
	return out
}

// UserInfo is the remote identity/quota snapshot returned by get_user_info.
type UserInfo struct {
	RemoteUserID string
	DisplayName  string
	Quota        int64
	Used         int64
	IsVIP        bool
	IsSuperVIP   bool
}

// RelationshipItem is one entry of a friend or group relationship listing.
type RelationshipItem struct {
	ID          string
	DisplayName string
	Kind        RelationshipKind
}
