package serviceimpl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

type fakeConfigRepoForExecutor struct {
	cfg *models.SyncConfig
}

func (r *fakeConfigRepoForExecutor) Create(ctx context.Context, cfg *models.SyncConfig) error { return nil }
func (r *fakeConfigRepoForExecutor) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error) {
	if r.cfg == nil {
		return nil, gormNotFound{}
	}
	return r.cfg, nil
}
func (r *fakeConfigRepoForExecutor) Update(ctx context.Context, cfg *models.SyncConfig) error { return nil }
func (r *fakeConfigRepoForExecutor) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (r *fakeConfigRepoForExecutor) ListSchedulable(ctx context.Context) ([]models.SyncConfig, error) {
	return nil, nil
}
func (r *fakeConfigRepoForExecutor) List(ctx context.Context, offset, limit int) ([]models.SyncConfig, int64, error) {
	return nil, 0, nil
}

var lastSyncStamped bool

func (r *fakeConfigRepoForExecutor) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	lastSyncStamped = true
	return nil
}

type gormNotFound struct{}

func (gormNotFound) Error() string { return "record not found" }

type fakeAccountRepo struct {
	account *models.Account
}

func (r *fakeAccountRepo) Create(ctx context.Context, a *models.Account) error { return nil }
func (r *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if r.account == nil {
		return nil, gormNotFound{}
	}
	return r.account, nil
}
func (r *fakeAccountRepo) Update(ctx context.Context, a *models.Account) error { return nil }
func (r *fakeAccountRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (r *fakeAccountRepo) List(ctx context.Context, offset, limit int) ([]models.Account, int64, error) {
	return nil, 0, nil
}

type fakeTaskRepo struct {
	created *models.SyncTask
	status  models.SyncTaskStatus
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.SyncTask) error {
	r.created = task
	return nil
}
func (r *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncTask, error) {
	return r.created, nil
}
func (r *fakeTaskRepo) Update(ctx context.Context, task *models.SyncTask) error { return nil }
func (r *fakeTaskRepo) ListByConfig(ctx context.Context, configID uuid.UUID, offset, limit int) ([]models.SyncTask, int64, error) {
	return nil, 0, nil
}
func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SyncTaskStatus, duraTime int64, taskNum string, errMsg string) error {
	r.status = status
	return nil
}

type fakeItemRepo struct {
	items []models.SyncTaskItem
}

func (r *fakeItemRepo) Create(ctx context.Context, item *models.SyncTaskItem) error { return nil }
func (r *fakeItemRepo) BatchCreate(ctx context.Context, items []models.SyncTaskItem) error {
	r.items = items
	return nil
}
func (r *fakeItemRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]models.SyncTaskItem, error) {
	return r.items, nil
}

type fakeExecutorProviderClient struct {
	share, disk []models.BaseFileInfo

	mu             sync.Mutex
	mkdirNames     []string
	transferredIDs [][]string
}

func (c *fakeExecutorProviderClient) DriveType() models.DriveType { return models.DriveTypeBaidu }
func (c *fakeExecutorProviderClient) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	return models.UserInfo{}, nil
}
func (c *fakeExecutorProviderClient) ListDisk(ctx context.Context, p services.ListDiskParams) ([]models.BaseFileInfo, error) {
	return c.disk, nil
}
func (c *fakeExecutorProviderClient) ListShare(ctx context.Context, p services.ListShareParams) ([]models.BaseFileInfo, error) {
	return c.share, nil
}
func (c *fakeExecutorProviderClient) Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error) {
	c.mu.Lock()
	c.mkdirNames = append(c.mkdirNames, name)
	c.mu.Unlock()
	return models.BaseFileInfo{FileID: "new-dir-" + name}, nil
}
func (c *fakeExecutorProviderClient) Remove(ctx context.Context, p services.RemoveParams) (bool, error) {
	return true, nil
}
func (c *fakeExecutorProviderClient) Transfer(ctx context.Context, p services.TransferParams) (bool, error) {
	c.mu.Lock()
	c.transferredIDs = append(c.transferredIDs, append([]string(nil), p.FileIDs...))
	c.mu.Unlock()
	return true, nil
}
func (c *fakeExecutorProviderClient) GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error) {
	return nil, nil
}

type fakeDriveManagerForExecutor struct {
	client services.ProviderClient
}

func (m *fakeDriveManagerForExecutor) GetClient(ctx context.Context, creds services.Credentials) (services.ProviderClient, error) {
	return m.client, nil
}
func (m *fakeDriveManagerForExecutor) Call(ctx context.Context, xToken string, driveType models.DriveType, methodName string, params any) (any, error) {
	return nil, nil
}
func (m *fakeDriveManagerForExecutor) Sweep() {}

func newExecutorForTest(cfg *models.SyncConfig, account *models.Account, client *fakeExecutorProviderClient) (*syncExecutor, *fakeTaskRepo, *fakeItemRepo, *fakeConfigRepoForExecutor) {
	configRepo := &fakeConfigRepoForExecutor{cfg: cfg}
	accountRepo := &fakeAccountRepo{account: account}
	taskRepo := &fakeTaskRepo{}
	itemRepo := &fakeItemRepo{}

	e := NewSyncExecutor(
		configRepo,
		accountRepo,
		taskRepo,
		itemRepo,
		&fakeDriveManagerForExecutor{client: client},
		NewRuleEngine(),
		NewDiffEngine(),
		nil,
		nil,
	).(*syncExecutor)

	return e, taskRepo, itemRepo, configRepo
}

func testConfig() *models.SyncConfig {
	return &models.SyncConfig{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		DriveType: models.DriveTypeBaidu,
		SrcPath:   "/share",
		DstPath:   "/personal",
		Method:    models.SyncMethodIncremental,
		SrcMeta:   `{"source_type":"friend","source_id":"u1"}`,
	}
}

func testAccount(id uuid.UUID) *models.Account {
	return &models.Account{ID: id, DriveType: models.DriveTypeBaidu, IsValid: true, Credentials: "cookie-blob"}
}

func TestExecuteReturnsNotFoundForMissingConfig(t *testing.T) {
	e, _, _, _ := newExecutorForTest(nil, nil, &fakeExecutorProviderClient{})
	_, err := e.Execute(context.Background(), uuid.New())
	if _, ok := err.(*services.NotFoundError); !ok {
		t.Fatalf("expected *services.NotFoundError, got %T (%v)", err, err)
	}
}

func TestExecuteReturnsAuthErrorForInvalidAccount(t *testing.T) {
	cfg := testConfig()
	account := testAccount(cfg.AccountID)
	account.IsValid = false
	e, _, _, _ := newExecutorForTest(cfg, account, &fakeExecutorProviderClient{})

	_, err := e.Execute(context.Background(), cfg.ID)
	if _, ok := err.(*services.AuthError); !ok {
		t.Fatalf("expected *services.AuthError, got %T (%v)", err, err)
	}
}

func TestExecuteRejectsExpiredConfig(t *testing.T) {
	cfg := testConfig()
	past := time.Now().Add(-1 * time.Hour)
	cfg.EndTime = &past
	account := testAccount(cfg.AccountID)
	e, _, _, _ := newExecutorForTest(cfg, account, &fakeExecutorProviderClient{})

	_, err := e.Execute(context.Background(), cfg.ID)
	if _, ok := err.(*services.ValidationError); !ok {
		t.Fatalf("expected *services.ValidationError for an expired config, got %T (%v)", err, err)
	}
}

func TestExecuteHappyPathAddsNewFileAndPersistsTask(t *testing.T) {
	cfg := testConfig()
	account := testAccount(cfg.AccountID)
	client := &fakeExecutorProviderClient{
		share: []models.BaseFileInfo{{FileID: "s1", FileName: "a.jpg", FilePath: "/share/a.jpg"}},
		disk:  nil,
	}
	e, taskRepo, itemRepo, configRepo := newExecutorForTest(cfg, account, client)

	result, err := e.Execute(context.Background(), cfg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AddedSuccess != 1 {
		t.Fatalf("expected one added file, got %+v", result)
	}
	if taskRepo.status != models.SyncTaskStatusCompleted {
		t.Fatalf("expected task status completed, got %v", taskRepo.status)
	}
	if len(itemRepo.items) != 1 || itemRepo.items[0].Type != models.SyncTaskItemTypeCopy {
		t.Fatalf("expected one copy audit item, got %+v", itemRepo.items)
	}
	if !lastSyncStamped {
		t.Fatal("expected last_sync to be stamped on a successful run")
	}
	_ = configRepo
}

func TestExecuteOverwriteDeletesExistingAndAddsSource(t *testing.T) {
	cfg := testConfig()
	cfg.Method = models.SyncMethodOverwrite
	account := testAccount(cfg.AccountID)
	client := &fakeExecutorProviderClient{
		share: []models.BaseFileInfo{{FileID: "s1", FileName: "a.jpg", FilePath: "/share/a.jpg"}},
		disk:  []models.BaseFileInfo{{FileID: "t1", FileName: "old.jpg", FilePath: "/personal/old.jpg"}},
	}
	e, _, itemRepo, _ := newExecutorForTest(cfg, account, client)

	result, err := e.Execute(context.Background(), cfg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeletedSuccess != 1 || result.AddedSuccess != 1 {
		t.Fatalf("expected one delete and one add, got %+v", result)
	}
	if len(itemRepo.items) != 2 {
		t.Fatalf("expected two audit items, got %d", len(itemRepo.items))
	}
}

func TestExecuteSkipsTransferringFoldersOutsideOverwrite(t *testing.T) {
	cfg := testConfig()
	account := testAccount(cfg.AccountID)
	client := &fakeExecutorProviderClient{
		share: []models.BaseFileInfo{
			{FileID: "d1", FileName: "photos", FilePath: "/share/photos", IsFolder: true},
			{FileID: "s1", FileName: "a.jpg", FilePath: "/share/photos/a.jpg"},
		},
	}
	e, _, itemRepo, _ := newExecutorForTest(cfg, account, client)

	result, err := e.Execute(context.Background(), cfg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AddedSuccess != 1 {
		t.Fatalf("expected only the file to count as added, got %+v", result)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.mkdirNames) != 1 || client.mkdirNames[0] != "photos" {
		t.Fatalf("expected photos to be created via mkdir, got %+v", client.mkdirNames)
	}
	for _, ids := range client.transferredIDs {
		for _, id := range ids {
			if id == "d1" {
				t.Fatal("a folder must never be transferred outside overwrite mode")
			}
		}
	}

	var mkdirItems, copyItems int
	for _, item := range itemRepo.items {
		switch item.Type {
		case models.SyncTaskItemTypeCreate:
			mkdirItems++
		case models.SyncTaskItemTypeCopy:
			copyItems++
		}
	}
	if mkdirItems != 1 || copyItems != 1 {
		t.Fatalf("expected one create item for the folder and one copy item for the file, got %+v", itemRepo.items)
	}
}
