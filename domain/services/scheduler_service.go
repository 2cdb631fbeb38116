package services

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

// CronValidation is the result of validating a cron expression without
// registering it.
type CronValidation struct {
	Valid            bool
	NextRunInSeconds *int64
	Reason           string
}

// SchedulerStatus reports the set of config IDs currently holding a live
// trigger, for the administrative status() operation.
type SchedulerStatus struct {
	Running            bool
	ScheduledConfigIDs []uuid.UUID
}

// SchedulerService is the dynamic, DB-driven cron dispatcher (C7): an
// in-memory table of config_id -> trigger, kept in sync with the
// sync_configs table. A trigger fires at most one concurrent run per
// config_id; an overlapping tick is dropped, not queued. refresh_from_db is
// not all-or-nothing: a failed read of sync_configs leaves every current
// trigger in place, but after a successful read every trigger is removed
// and each schedulable config is re-added, and a config whose trigger
// cannot be added is logged and left without one.
type SchedulerService interface {
	Start()
	Stop()

	Add(ctx context.Context, cfg models.SyncConfig) error
	Update(ctx context.Context, cfg models.SyncConfig) error
	Remove(configID uuid.UUID) error

	RefreshFromDB(ctx context.Context) error

	ValidateCron(expr string) CronValidation
	Status() SchedulerStatus
}
