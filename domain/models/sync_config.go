package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncConfig describes one recurring job: a share tree to read from and a
// personal target directory to reconcile it into, under one of three
// methods, on an optional cron schedule.
type SyncConfig struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriveType DriveType `gorm:"size:32;not null"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Enable    bool      `gorm:"default:true;index"`

	SrcPath string `gorm:"size:1024;not null"`
	// SrcMeta is the JSON-encoded models.SrcMeta.
	SrcMeta string `gorm:"type:text"`

	DstPath string `gorm:"size:1024;not null"`
	// DstMeta is the JSON-encoded models.DstMeta.
	DstMeta string `gorm:"type:text"`

	Method         SyncMethod     `gorm:"size:16;not null"`
	RecursionSpeed RecursionSpeed `gorm:"size:16;not null;default:normal"`

	Cron    *string    `gorm:"size:64"`
	EndTime *time.Time

	// Exclude is the JSON-encoded []models.ExclusionRuleSpec.
	Exclude string `gorm:"type:text"`
	// Rename is the JSON-encoded []models.RenameRuleSpec.
	Rename string `gorm:"type:text"`

	LastSync *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Account Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (SyncConfig) TableName() string { return "sync_configs" }

// Schedulable reports whether this config should currently hold a live
// scheduler trigger: enabled, has a cron expression, and has not expired.
func (c SyncConfig) Schedulable(now time.Time) bool {
	if !c.Enable || c.Cron == nil || *c.Cron == "" {
		return false
	}
	if c.EndTime != nil && !c.EndTime.After(now) {
		return false
	}
	return true
}
