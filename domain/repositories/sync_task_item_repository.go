package repositories

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type SyncTaskItemRepository interface {
	Create(ctx context.Context, item *models.SyncTaskItem) error
	BatchCreate(ctx context.Context, items []models.SyncTaskItem) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.SyncTaskItem, error)
}
