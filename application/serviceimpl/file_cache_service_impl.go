package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
)

type fileCacheService struct {
	repo repositories.FileCacheRepository
}

func NewFileCacheService(repo repositories.FileCacheRepository) services.FileCacheService {
	return &fileCacheService{repo: repo}
}

func (s *fileCacheService) GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error) {
	row, err := s.repo.GetByFileID(ctx, accountID, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return row, err
}

func (s *fileCacheService) GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error) {
	row, err := s.repo.GetByPath(ctx, accountID, path)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return row, err
}

func (s *fileCacheService) ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.BaseFileInfo, error) {
	rows, err := s.repo.ListChildren(ctx, accountID, parentID, onlyValid)
	if err != nil {
		return nil, err
	}

	out := make([]models.BaseFileInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, cacheRowToFileInfo(row))
	}
	return out, nil
}

func cacheRowToFileInfo(row models.FileCache) models.BaseFileInfo {
	info := models.BaseFileInfo{
		FileID:    row.FileID,
		FileName:  row.FileName,
		FilePath:  row.FilePath,
		IsFolder:  row.IsFolder,
		FileSize:  row.FileSize,
		ParentID:  row.ParentID,
		CreatedAt: row.FileCreatedAt,
		UpdatedAt: row.FileUpdatedAt,
	}
	if row.FileExt != "" {
		var ext map[string]any
		if json.Unmarshal([]byte(row.FileExt), &ext) == nil {
			info.FileExt = ext
		}
	}
	return info
}

func fileInfoToCacheRow(accountID uuid.UUID, f models.BaseFileInfo, version string) models.FileCache {
	row := models.FileCache{
		DriveAccountID: accountID,
		FileID:         f.FileID,
		FileName:       f.FileName,
		FilePath:       f.FilePath,
		IsFolder:       f.IsFolder,
		ParentID:       f.ParentID,
		FileSize:       f.FileSize,
		FileCreatedAt:  f.CreatedAt,
		FileUpdatedAt:  f.UpdatedAt,
		CacheVersion:   version,
		IsValid:        true,
	}
	if len(f.FileExt) > 0 {
		if raw, err := json.Marshal(f.FileExt); err == nil {
			row.FileExt = string(raw)
		}
	}
	return row
}

func (s *fileCacheService) BatchUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string) error {
	for _, f := range files {
		row := fileInfoToCacheRow(accountID, f, version)
		if err := s.repo.Create(ctx, &row); err != nil {
			return err
		}
	}
	return nil
}

// SmartUpsert only touches rows whose comparable fields actually changed,
// mirroring smart_cache_write's new/updated/unchanged split.
func (s *fileCacheService) SmartUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string, force bool) (int, int, error) {
	newCount, updatedCount := 0, 0

	for _, f := range files {
		existing, err := s.repo.GetByFileID(ctx, accountID, f.FileID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return newCount, updatedCount, err
		}

		if existing == nil {
			row := fileInfoToCacheRow(accountID, f, version)
			if err := s.repo.Create(ctx, &row); err != nil {
				return newCount, updatedCount, err
			}
			newCount++
			continue
		}

		needsUpdate := force ||
			existing.FileName != f.FileName ||
			existing.FilePath != f.FilePath ||
			existing.FileSize != f.FileSize ||
			existing.FileUpdatedAt != f.UpdatedAt

		if !needsUpdate {
			continue
		}

		existing.FileName = f.FileName
		existing.FilePath = f.FilePath
		existing.FileSize = f.FileSize
		existing.FileUpdatedAt = f.UpdatedAt
		existing.CacheVersion = version
		existing.IsValid = true
		if len(f.FileExt) > 0 {
			if raw, err := json.Marshal(f.FileExt); err == nil {
				existing.FileExt = string(raw)
			}
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return newCount, updatedCount, err
		}
		updatedCount++
	}

	return newCount, updatedCount, nil
}

func (s *fileCacheService) Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	return s.repo.Invalidate(ctx, accountID, version)
}

func (s *fileCacheService) Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	return s.repo.Clear(ctx, accountID, version)
}

func (s *fileCacheService) IsFresh(ctx context.Context, accountID uuid.UUID, parentID string, maxAgeHours int) (bool, error) {
	newest, err := s.repo.NewestChildUpdatedAt(ctx, accountID, parentID)
	if err != nil {
		return false, err
	}
	if newest == nil {
		return false, nil
	}
	return time.Since(*newest) < time.Duration(maxAgeHours)*time.Hour, nil
}
