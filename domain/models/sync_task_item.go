package models

import "github.com/google/uuid"

// SyncTaskItem is one per-file audit row belonging to exactly one SyncTask;
// deleted with it (FK CASCADE).
type SyncTaskItem struct {
	ID     uuid.UUID          `gorm:"type:uuid;primaryKey"`
	TaskID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Type   SyncTaskItemType   `gorm:"size:16;not null"`

	SrcPath  string `gorm:"size:1024"`
	DstPath  string `gorm:"size:1024"`
	FileName string `gorm:"size:512"`
	FileSize int64

	Status SyncTaskItemStatus `gorm:"size:16;not null"`
	ErrMsg string             `gorm:"type:text"`
}

func (SyncTaskItem) TableName() string { return "sync_task_items" }
