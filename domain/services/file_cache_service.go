package services

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

// FileCacheService is the persistent remote-metadata index consulted by the
// "fast" recursion speed mode. Smart upsert leaves a row untouched unless
// one of (file_name, file_path, file_size, file_updated_at) actually
// differs; freshness is judged per-parent, not per-row.
type FileCacheService interface {
	GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error)
	GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error)
	ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.BaseFileInfo, error)

	BatchUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string) error

	// SmartUpsert inserts rows with no existing match and updates only
	// rows whose comparable fields actually changed, returning
	// (newCount, updatedCount).
	SmartUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string, force bool) (int, int, error)

	Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error)
	Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error)

	// IsFresh reports whether parentID has at least one valid child row
	// whose updated_time is within maxAgeHours of now.
	IsFresh(ctx context.Context, accountID uuid.UUID, parentID string, maxAgeHours int) (bool, error)
}
