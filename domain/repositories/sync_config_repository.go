package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type SyncConfigRepository interface {
	Create(ctx context.Context, cfg *models.SyncConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error)
	Update(ctx context.Context, cfg *models.SyncConfig) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListSchedulable returns every config the scheduler should currently
	// hold a trigger for: enable=true, cron is non-null, and end_time is
	// null or in the future.
	ListSchedulable(ctx context.Context) ([]models.SyncConfig, error)

	// List returns a page of all configs regardless of schedulability,
	// for administrative listing.
	List(ctx context.Context, offset, limit int) ([]models.SyncConfig, int64, error)

	// UpdateLastSync stamps last_sync on a successful run; a failed run
	// leaves last_sync unchanged per the propagation policy.
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
}
