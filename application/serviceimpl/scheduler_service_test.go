package serviceimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/pkg/scheduler"
)

type fakeEventScheduler struct {
	running bool
	jobs    map[uuid.UUID]string // config id -> cron expr
}

func newFakeEventScheduler() *fakeEventScheduler {
	return &fakeEventScheduler{jobs: make(map[uuid.UUID]string)}
}

func (f *fakeEventScheduler) Start() { f.running = true }
func (f *fakeEventScheduler) Stop()  { f.running = false }
func (f *fakeEventScheduler) IsRunning() bool { return f.running }

func (f *fakeEventScheduler) AddJob(configID uuid.UUID, cronExpr string, task func()) error {
	f.jobs[configID] = cronExpr
	return nil
}

func (f *fakeEventScheduler) RemoveJob(configID uuid.UUID) error {
	delete(f.jobs, configID)
	return nil
}

func (f *fakeEventScheduler) GetJob(configID uuid.UUID) (*scheduler.JobInfo, bool) {
	expr, ok := f.jobs[configID]
	if !ok {
		return nil, false
	}
	return &scheduler.JobInfo{ConfigID: configID, CronExpr: expr}, true
}

func (f *fakeEventScheduler) ListJobs() map[uuid.UUID]*scheduler.JobInfo {
	out := make(map[uuid.UUID]*scheduler.JobInfo, len(f.jobs))
	for id, expr := range f.jobs {
		out[id] = &scheduler.JobInfo{ConfigID: id, CronExpr: expr}
	}
	return out
}

type fakeSyncConfigRepo struct {
	schedulable []models.SyncConfig
}

func (r *fakeSyncConfigRepo) Create(ctx context.Context, cfg *models.SyncConfig) error { return nil }
func (r *fakeSyncConfigRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error) {
	return nil, nil
}
func (r *fakeSyncConfigRepo) Update(ctx context.Context, cfg *models.SyncConfig) error { return nil }
func (r *fakeSyncConfigRepo) Delete(ctx context.Context, id uuid.UUID) error           { return nil }
func (r *fakeSyncConfigRepo) ListSchedulable(ctx context.Context) ([]models.SyncConfig, error) {
	return r.schedulable, nil
}
func (r *fakeSyncConfigRepo) List(ctx context.Context, offset, limit int) ([]models.SyncConfig, int64, error) {
	return nil, 0, nil
}
func (r *fakeSyncConfigRepo) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type fakeSyncExecutor struct {
	executed []uuid.UUID
}

func (e *fakeSyncExecutor) Execute(ctx context.Context, configID uuid.UUID) (services.ExecutionResult, error) {
	e.executed = append(e.executed, configID)
	return services.ExecutionResult{TaskID: uuid.New()}, nil
}

func newTestSchedulerService(events *fakeEventScheduler, cfgRepo *fakeSyncConfigRepo, executor *fakeSyncExecutor) *schedulerService {
	return &schedulerService{
		events:   events,
		executor: executor,
		cfgRepo:  cfgRepo,
		byConfig: make(map[uuid.UUID]bool),
	}
}

func cronStr(s string) *string { return &s }

func TestAddSkipsNonSchedulableConfig(t *testing.T) {
	events := newFakeEventScheduler()
	svc := newTestSchedulerService(events, &fakeSyncConfigRepo{}, &fakeSyncExecutor{})

	cfg := models.SyncConfig{ID: uuid.New(), Enable: false, Cron: cronStr("* * * * *")}
	if err := svc.Add(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.jobs) != 0 {
		t.Fatalf("a disabled config must never get a trigger, got %d jobs", len(events.jobs))
	}
}

func TestAddRegistersSchedulableConfig(t *testing.T) {
	events := newFakeEventScheduler()
	svc := newTestSchedulerService(events, &fakeSyncConfigRepo{}, &fakeSyncExecutor{})

	cfg := models.SyncConfig{ID: uuid.New(), Enable: true, Cron: cronStr("*/5 * * * *")}
	if err := svc.Add(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := events.jobs[cfg.ID]; !ok {
		t.Fatal("expected a trigger registered under the config id")
	}

	status := svc.Status()
	if len(status.ScheduledConfigIDs) != 1 || status.ScheduledConfigIDs[0] != cfg.ID {
		t.Fatalf("expected status to report the scheduled config, got %+v", status.ScheduledConfigIDs)
	}
}

func TestRemoveClearsTrigger(t *testing.T) {
	events := newFakeEventScheduler()
	svc := newTestSchedulerService(events, &fakeSyncConfigRepo{}, &fakeSyncExecutor{})

	cfg := models.SyncConfig{ID: uuid.New(), Enable: true, Cron: cronStr("* * * * *")}
	if err := svc.Add(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Remove(cfg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := events.jobs[cfg.ID]; ok {
		t.Fatal("expected trigger to be removed")
	}
}

func TestRefreshFromDBReplacesTriggerSet(t *testing.T) {
	events := newFakeEventScheduler()
	stale := models.SyncConfig{ID: uuid.New(), Enable: true, Cron: cronStr("* * * * *")}
	svc := newTestSchedulerService(events, &fakeSyncConfigRepo{}, &fakeSyncExecutor{})
	if err := svc.Add(context.Background(), stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh := models.SyncConfig{ID: uuid.New(), Enable: true, Cron: cronStr("*/10 * * * *")}
	svc.cfgRepo = &fakeSyncConfigRepo{schedulable: []models.SyncConfig{fresh}}

	if err := svc.RefreshFromDB(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := events.jobs[stale.ID]; ok {
		t.Fatal("expected the stale trigger to be removed during refresh")
	}
	if _, ok := events.jobs[fresh.ID]; !ok {
		t.Fatal("expected the fresh trigger to be registered during refresh")
	}
}

func TestValidateCronRejectsGarbage(t *testing.T) {
	svc := newTestSchedulerService(newFakeEventScheduler(), &fakeSyncConfigRepo{}, &fakeSyncExecutor{})
	result := svc.ValidateCron("not a cron expression")
	if result.Valid {
		t.Fatal("expected an invalid cron expression to be rejected")
	}
}
