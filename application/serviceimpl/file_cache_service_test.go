package serviceimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
)

type fakeFileCacheRepo struct {
	byFileID map[string]*models.FileCache
	newest   *time.Time
}

func newFakeFileCacheRepo() *fakeFileCacheRepo {
	return &fakeFileCacheRepo{byFileID: make(map[string]*models.FileCache)}
}

func (r *fakeFileCacheRepo) GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error) {
	row, ok := r.byFileID[fileID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeFileCacheRepo) GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error) {
	for _, row := range r.byFileID {
		if row.FilePath == path {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFileCacheRepo) ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.FileCache, error) {
	var out []models.FileCache
	for _, row := range r.byFileID {
		if row.ParentID == parentID && (!onlyValid || row.IsValid) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeFileCacheRepo) Create(ctx context.Context, row *models.FileCache) error {
	copied := *row
	r.byFileID[row.FileID] = &copied
	return nil
}

func (r *fakeFileCacheRepo) Update(ctx context.Context, row *models.FileCache) error {
	copied := *row
	r.byFileID[row.FileID] = &copied
	return nil
}

func (r *fakeFileCacheRepo) Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	var n int64
	for _, row := range r.byFileID {
		row.IsValid = false
		n++
	}
	return n, nil
}

func (r *fakeFileCacheRepo) Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	n := int64(len(r.byFileID))
	r.byFileID = make(map[string]*models.FileCache)
	return n, nil
}

func (r *fakeFileCacheRepo) NewestChildUpdatedAt(ctx context.Context, accountID uuid.UUID, parentID string) (*time.Time, error) {
	return r.newest, nil
}

func TestSmartUpsertCreatesNewRows(t *testing.T) {
	repo := newFakeFileCacheRepo()
	svc := NewFileCacheService(repo)

	files := []models.BaseFileInfo{{FileID: "f1", FileName: "a.jpg", FilePath: "/a.jpg"}}
	newCount, updatedCount, err := svc.SmartUpsert(context.Background(), uuid.New(), files, "v1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newCount != 1 || updatedCount != 0 {
		t.Fatalf("expected 1 new, 0 updated, got new=%d updated=%d", newCount, updatedCount)
	}
}

func TestSmartUpsertSkipsUnchangedRow(t *testing.T) {
	repo := newFakeFileCacheRepo()
	svc := NewFileCacheService(repo)
	accountID := uuid.New()

	files := []models.BaseFileInfo{{FileID: "f1", FileName: "a.jpg", FilePath: "/a.jpg", FileSize: 100, UpdatedAt: "2026-01-01T00:00:00Z"}}
	if _, _, err := svc.SmartUpsert(context.Background(), accountID, files, "v1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newCount, updatedCount, err := svc.SmartUpsert(context.Background(), accountID, files, "v1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newCount != 0 || updatedCount != 0 {
		t.Fatalf("identical fields must not trigger an update, got new=%d updated=%d", newCount, updatedCount)
	}
}

func TestSmartUpsertUpdatesWhenSizeChanges(t *testing.T) {
	repo := newFakeFileCacheRepo()
	svc := NewFileCacheService(repo)
	accountID := uuid.New()

	first := []models.BaseFileInfo{{FileID: "f1", FileName: "a.jpg", FilePath: "/a.jpg", FileSize: 100}}
	if _, _, err := svc.SmartUpsert(context.Background(), accountID, first, "v1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := []models.BaseFileInfo{{FileID: "f1", FileName: "a.jpg", FilePath: "/a.jpg", FileSize: 200}}
	newCount, updatedCount, err := svc.SmartUpsert(context.Background(), accountID, second, "v1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newCount != 0 || updatedCount != 1 {
		t.Fatalf("expected the size change to trigger an update, got new=%d updated=%d", newCount, updatedCount)
	}
}

func TestSmartUpsertForceAlwaysUpdates(t *testing.T) {
	repo := newFakeFileCacheRepo()
	svc := NewFileCacheService(repo)
	accountID := uuid.New()

	files := []models.BaseFileInfo{{FileID: "f1", FileName: "a.jpg", FilePath: "/a.jpg"}}
	if _, _, err := svc.SmartUpsert(context.Background(), accountID, files, "v1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, updatedCount, err := svc.SmartUpsert(context.Background(), accountID, files, "v1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updatedCount != 1 {
		t.Fatalf("force=true must update even when nothing changed, got updated=%d", updatedCount)
	}
}

func TestIsFreshComparesNewestChildAgainstMaxAge(t *testing.T) {
	repo := newFakeFileCacheRepo()
	recent := time.Now().Add(-1 * time.Hour)
	repo.newest = &recent
	svc := NewFileCacheService(repo)

	fresh, err := svc.IsFresh(context.Background(), uuid.New(), "parent", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh {
		t.Fatal("expected cache to be fresh within the 24h window")
	}

	stale, err := svc.IsFresh(context.Background(), uuid.New(), "parent", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stale {
		t.Fatal("expected cache to be stale with a 0h max age")
	}
}

func TestIsFreshWithNoChildrenIsNeverFresh(t *testing.T) {
	repo := newFakeFileCacheRepo()
	svc := NewFileCacheService(repo)

	fresh, err := svc.IsFresh(context.Background(), uuid.New(), "parent", 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh {
		t.Fatal("a parent with no cached children must never be reported fresh")
	}
}
