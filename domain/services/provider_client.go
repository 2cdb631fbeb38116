package services

import (
	"context"

	"drivesync/domain/models"
)

// Credentials is the typed wrapper around the opaque per-account credential
// blob: a drive type tag plus the raw provider-specific cookie string or
// token bundle. Every provider factory takes one of these rather than a
// bag of constructor kwargs.
type Credentials struct {
	DriveType models.DriveType
	RawToken  string
}

// ItemFilter is the compiled predicate the rule engine hands to a provider
// client so that excluded folders can be pruned from recursion rather than
// merely dropped from the result after a full listing.
type ItemFilter interface {
	// Excluded reports whether item should be dropped from the result.
	Excluded(item models.BaseFileInfo) bool
}

// SortOrder controls ordering for a list_disk call.
type SortOrder struct {
	By   string // "name" | "time" | "size"
	Desc bool
}

// ListDiskParams parameterizes ProviderClient.ListDisk.
type ListDiskParams struct {
	Path      string
	FileID    string
	Recursive bool
	Speed     models.RecursionSpeed
	Order     SortOrder
	Filter    ItemFilter
}

// ListShareParams parameterizes ProviderClient.ListShare.
type ListShareParams struct {
	SourceType models.SourceType
	SourceID   string
	Path       string
	Recursive  bool
	Speed      models.RecursionSpeed
	Filter     ItemFilter
}

// TransferParams parameterizes ProviderClient.Transfer.
type TransferParams struct {
	SourceType models.SourceType
	SourceID   string
	SourcePath string
	TargetPath string
	TargetID   string
	FileIDs    []string
	Ext        map[string]any
}

// MkdirParams parameterizes ProviderClient.Mkdir for the dispatch surface;
// the interface method itself keeps explicit positional args since it has
// few enough that a params struct would only add indirection there.
type MkdirParams struct {
	Path           string
	ParentID       string
	FileName       string
	ReturnIfExists bool
}

// RemoveParams parameterizes ProviderClient.Remove.
type RemoveParams struct {
	Paths []string
	IDs   []string
}

// ProviderClient is the uniform, stateless-from-the-caller contract over one
// cloud-drive provider (Baidu Pan, Quark, Alist). A client owns whatever
// authentication state it derived from Credentials at construction time.
// Construction performs no I/O and does not verify the credentials: a
// constructor fails with AuthError only when the required cookie or token
// is missing. An auth rejection surfaces as AuthError from the call that
// received it; later calls are not failed early, except that the Baidu
// client records the rejection and its GetUserInfo then fails at once.
type ProviderClient interface {
	DriveType() models.DriveType

	GetUserInfo(ctx context.Context) (models.UserInfo, error)

	ListDisk(ctx context.Context, p ListDiskParams) ([]models.BaseFileInfo, error)
	ListShare(ctx context.Context, p ListShareParams) ([]models.BaseFileInfo, error)

	Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error)
	Remove(ctx context.Context, p RemoveParams) (bool, error)
	Transfer(ctx context.Context, p TransferParams) (bool, error)

	GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error)
}

// ProviderFactory constructs a ProviderClient from credentials. Each
// provider package registers one factory under its DriveType in the
// registry (infrastructure/providers).
type ProviderFactory func(creds Credentials) (ProviderClient, error)
