package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type SyncConfigRepositoryImpl struct {
	db *gorm.DB
}

func NewSyncConfigRepository(db *gorm.DB) repositories.SyncConfigRepository {
	return &SyncConfigRepositoryImpl{db: db}
}

func (r *SyncConfigRepositoryImpl) Create(ctx context.Context, cfg *models.SyncConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *SyncConfigRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error) {
	var cfg models.SyncConfig
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *SyncConfigRepositoryImpl) Update(ctx context.Context, cfg *models.SyncConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *SyncConfigRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SyncConfig{}).Error
}

// ListSchedulable mirrors models.SyncConfig.Schedulable in SQL: enabled,
// cron set, and not yet past end_time.
func (r *SyncConfigRepositoryImpl) ListSchedulable(ctx context.Context) ([]models.SyncConfig, error) {
	var configs []models.SyncConfig
	err := r.db.WithContext(ctx).
		Where("enable = ?", true).
		Where("cron IS NOT NULL AND cron <> ''").
		Where("end_time IS NULL OR end_time > ?", time.Now()).
		Find(&configs).Error
	return configs, err
}

func (r *SyncConfigRepositoryImpl) List(ctx context.Context, offset, limit int) ([]models.SyncConfig, int64, error) {
	var configs []models.SyncConfig
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.SyncConfig{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&configs).Error; err != nil {
		return nil, 0, err
	}
	return configs, total, nil
}

func (r *SyncConfigRepositoryImpl) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.SyncConfig{}).Where("id = ?", id).Update("last_sync", at).Error
}
