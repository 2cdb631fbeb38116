package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type SyncTaskRepositoryImpl struct {
	db *gorm.DB
}

func NewSyncTaskRepository(db *gorm.DB) repositories.SyncTaskRepository {
	return &SyncTaskRepositoryImpl{db: db}
}

func (r *SyncTaskRepositoryImpl) Create(ctx context.Context, task *models.SyncTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *SyncTaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncTask, error) {
	var task models.SyncTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *SyncTaskRepositoryImpl) Update(ctx context.Context, task *models.SyncTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *SyncTaskRepositoryImpl) ListByConfig(ctx context.Context, configID uuid.UUID, offset, limit int) ([]models.SyncTask, int64, error) {
	var tasks []models.SyncTask
	var total int64

	q := r.db.WithContext(ctx).Model(&models.SyncTask{}).Where("config_id = ?", configID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Where("config_id = ?", configID).
		Order("start_time DESC").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *SyncTaskRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncTaskStatus, duraTime int64, taskNum string, errMsg string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if duraTime > 0 {
		updates["dura_time"] = duraTime
	}
	if taskNum != "" {
		updates["task_num"] = taskNum
	}
	if errMsg != "" {
		updates["err_msg"] = errMsg
	}
	return r.db.WithContext(ctx).Model(&models.SyncTask{}).Where("id = ?", id).Updates(updates).Error
}
