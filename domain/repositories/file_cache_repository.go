package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type FileCacheRepository interface {
	GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error)
	GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error)
	ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.FileCache, error)

	Create(ctx context.Context, row *models.FileCache) error
	Update(ctx context.Context, row *models.FileCache) error

	// Invalidate flips is_valid=false for rows matching the account and,
	// if version is non-empty, only rows stamped with that cache_version.
	Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error)

	// Clear deletes rows outright, scoped the same way Invalidate is.
	Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error)

	// NewestChildUpdatedAt returns the most recent updated_at among valid
	// child rows of parentID, used by the freshness check.
	NewestChildUpdatedAt(ctx context.Context, accountID uuid.UUID, parentID string) (*time.Time, error)
}
