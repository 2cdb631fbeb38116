package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type FileCacheRepositoryImpl struct {
	db *gorm.DB
}

func NewFileCacheRepository(db *gorm.DB) repositories.FileCacheRepository {
	return &FileCacheRepositoryImpl{db: db}
}

func (r *FileCacheRepositoryImpl) GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error) {
	var row models.FileCache
	err := r.db.WithContext(ctx).
		Where("drive_account_id = ? AND file_id = ?", accountID, fileID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *FileCacheRepositoryImpl) GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error) {
	var row models.FileCache
	err := r.db.WithContext(ctx).
		Where("drive_account_id = ? AND file_path = ?", accountID, path).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *FileCacheRepositoryImpl) ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.FileCache, error) {
	q := r.db.WithContext(ctx).Where("drive_account_id = ? AND parent_id = ?", accountID, parentID)
	if onlyValid {
		q = q.Where("is_valid = ?", true)
	}
	var rows []models.FileCache
	err := q.Find(&rows).Error
	return rows, err
}

func (r *FileCacheRepositoryImpl) Create(ctx context.Context, row *models.FileCache) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *FileCacheRepositoryImpl) Update(ctx context.Context, row *models.FileCache) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *FileCacheRepositoryImpl) Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.FileCache{}).Where("drive_account_id = ?", accountID)
	if version != "" {
		q = q.Where("cache_version = ?", version)
	}
	res := q.Update("is_valid", false)
	return res.RowsAffected, res.Error
}

func (r *FileCacheRepositoryImpl) Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	q := r.db.WithContext(ctx).Where("drive_account_id = ?", accountID)
	if version != "" {
		q = q.Where("cache_version = ?", version)
	}
	res := q.Delete(&models.FileCache{})
	return res.RowsAffected, res.Error
}

func (r *FileCacheRepositoryImpl) NewestChildUpdatedAt(ctx context.Context, accountID uuid.UUID, parentID string) (*time.Time, error) {
	var row models.FileCache
	err := r.db.WithContext(ctx).
		Where("drive_account_id = ? AND parent_id = ? AND is_valid = ?", accountID, parentID, true).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row.UpdatedAt, nil
}
