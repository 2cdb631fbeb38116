package repositories

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type SyncTaskRepository interface {
	Create(ctx context.Context, task *models.SyncTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SyncTask, error)
	Update(ctx context.Context, task *models.SyncTask) error
	ListByConfig(ctx context.Context, configID uuid.UUID, offset, limit int) ([]models.SyncTask, int64, error)

	// UpdateStatus writes a terminal or transitional status, and when the
	// transition is into completed/failed also stamps dura_time/task_num.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncTaskStatus, duraTime int64, taskNum string, errMsg string) error
}
