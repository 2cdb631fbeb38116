package models

import (
	"time"

	"github.com/google/uuid"
)

// FileCache is a persistent index of remote file metadata keyed by
// (drive_account_id, file_id), consulted by the sync executor in the
// "fast" recursion speed mode. At most one valid row exists per key;
// invalidation flips IsValid rather than deleting the row.
type FileCache struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	DriveAccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_file_cache_account_file;index:idx_file_cache_account_path;index:idx_file_cache_account_parent"`
	FileID         string    `gorm:"size:128;not null;uniqueIndex:idx_file_cache_account_file"`

	FileName string `gorm:"size:512;not null"`
	FilePath string `gorm:"size:1024;not null;index:idx_file_cache_account_path"`
	IsFolder bool   `gorm:"not null"`
	ParentID string `gorm:"size:128;index:idx_file_cache_account_parent"`
	FileSize int64

	FileCreatedAt string
	FileUpdatedAt string

	// FileExt is the JSON-encoded provider-specific map.
	FileExt string `gorm:"type:text"`

	CacheVersion string `gorm:"size:64"`
	IsValid      bool   `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FileCache) TableName() string { return "file_caches" }
