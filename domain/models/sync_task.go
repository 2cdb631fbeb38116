package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncTask is the audit header for one execution of a SyncConfig.
type SyncTask struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConfigID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status   SyncTaskStatus `gorm:"size:16;not null"`

	StartTime time.Time
	DuraTime  int64 // milliseconds
	ErrMsg    string `gorm:"type:text"`

	// TaskNum is the JSON-encoded models.TaskNum, written once the run
	// reaches a terminal status.
	TaskNum string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Config SyncConfig `gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE"`
}

func (SyncTask) TableName() string { return "sync_tasks" }
