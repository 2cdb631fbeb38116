package serviceimpl

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
	"drivesync/pkg/scheduler"
)

// schedulerService is C7: a dynamic config_id -> trigger table backed by
// the gocron wrapper, kept in sync with sync_configs. SingletonModeAll on
// the underlying scheduler gives the "drop, don't queue, an overlapping
// tick" guarantee for free.
type schedulerService struct {
	events   scheduler.EventScheduler
	executor services.SyncExecutor
	cfgRepo  repositories.SyncConfigRepository

	mu       sync.RWMutex
	byConfig map[uuid.UUID]bool
}

func NewSchedulerService(executor services.SyncExecutor, cfgRepo repositories.SyncConfigRepository) services.SchedulerService {
	return &schedulerService{
		events:   scheduler.NewEventScheduler(),
		executor: executor,
		cfgRepo:  cfgRepo,
		byConfig: make(map[uuid.UUID]bool),
	}
}

func (s *schedulerService) Start() { s.events.Start() }
func (s *schedulerService) Stop()  { s.events.Stop() }

func (s *schedulerService) Add(ctx context.Context, cfg models.SyncConfig) error {
	if !cfg.Schedulable(time.Now()) {
		return nil
	}

	configID := cfg.ID
	err := s.events.AddJob(configID, *cfg.Cron, func() {
		runCtx := context.Background()
		if _, err := s.executor.Execute(runCtx, configID); err != nil {
			logger.SchedulerError("run", "scheduled sync run failed", err, map[string]interface{}{"config_id": configID.String()})
		}
	})
	if err != nil {
		return &services.ValidationError{Field: "cron", Reason: err.Error()}
	}

	s.mu.Lock()
	s.byConfig[cfg.ID] = true
	s.mu.Unlock()
	return nil
}

func (s *schedulerService) Update(ctx context.Context, cfg models.SyncConfig) error {
	if err := s.Remove(cfg.ID); err != nil {
		return err
	}
	return s.Add(ctx, cfg)
}

func (s *schedulerService) Remove(configID uuid.UUID) error {
	s.mu.Lock()
	_, exists := s.byConfig[configID]
	delete(s.byConfig, configID)
	s.mu.Unlock()

	if !exists {
		return nil
	}
	if _, found := s.events.GetJob(configID); !found {
		return nil
	}
	return s.events.RemoveJob(configID)
}

// RefreshFromDB clears every trigger and re-reads sync_configs, installing
// a trigger for every row that is currently schedulable. Atomic from the
// caller's perspective: the old table is only dropped after the new set of
// configs has been fetched successfully.
func (s *schedulerService) RefreshFromDB(ctx context.Context) error {
	configs, err := s.cfgRepo.ListSchedulable(ctx)
	if err != nil {
		return &services.InternalError{Reason: "failed to load schedulable configs", Cause: err}
	}

	s.mu.Lock()
	existing := make([]uuid.UUID, 0, len(s.byConfig))
	for id := range s.byConfig {
		existing = append(existing, id)
	}
	s.mu.Unlock()

	for _, id := range existing {
		_ = s.Remove(id)
	}
	for _, cfg := range configs {
		if err := s.Add(ctx, cfg); err != nil {
			logger.SchedulerError("refresh_add", "failed to register trigger during refresh", err, map[string]interface{}{"config_id": cfg.ID.String()})
		}
	}

	logger.Scheduler("refreshed", "scheduler refreshed from db", map[string]interface{}{"count": len(configs)})
	return nil
}

func (s *schedulerService) ValidateCron(expr string) services.CronValidation {
	if err := scheduler.ValidateCronExpression(expr); err != nil {
		return services.CronValidation{Valid: false, Reason: err.Error()}
	}

	next, err := scheduler.GetNextRunTime(expr)
	if err != nil || next == nil {
		return services.CronValidation{Valid: true}
	}

	seconds := int64(next.Sub(time.Now()).Seconds())
	return services.CronValidation{Valid: true, NextRunInSeconds: &seconds}
}

func (s *schedulerService) Status() services.SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.byConfig))
	for id := range s.byConfig {
		ids = append(ids, id)
	}
	return services.SchedulerStatus{Running: s.events.IsRunning(), ScheduledConfigIDs: ids}
}
