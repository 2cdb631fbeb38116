package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type SyncTaskItemRepositoryImpl struct {
	db *gorm.DB
}

func NewSyncTaskItemRepository(db *gorm.DB) repositories.SyncTaskItemRepository {
	return &SyncTaskItemRepositoryImpl{db: db}
}

func (r *SyncTaskItemRepositoryImpl) Create(ctx context.Context, item *models.SyncTaskItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *SyncTaskItemRepositoryImpl) BatchCreate(ctx context.Context, items []models.SyncTaskItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (r *SyncTaskItemRepositoryImpl) ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.SyncTaskItem, error) {
	var items []models.SyncTaskItem
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Find(&items).Error
	return items, err
}
