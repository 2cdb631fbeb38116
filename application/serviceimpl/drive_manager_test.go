package serviceimpl

import (
	"context"
	"testing"
	"time"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

type fakeProviderClient struct {
	driveType models.DriveType
}

func (c *fakeProviderClient) DriveType() models.DriveType { return c.driveType }

func (c *fakeProviderClient) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	return models.UserInfo{}, nil
}

func (c *fakeProviderClient) ListDisk(ctx context.Context, p services.ListDiskParams) ([]models.BaseFileInfo, error) {
	return nil, nil
}

func (c *fakeProviderClient) ListShare(ctx context.Context, p services.ListShareParams) ([]models.BaseFileInfo, error) {
	return nil, nil
}

func (c *fakeProviderClient) Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error) {
	return models.BaseFileInfo{}, nil
}

func (c *fakeProviderClient) Remove(ctx context.Context, p services.RemoveParams) (bool, error) {
	return true, nil
}

func (c *fakeProviderClient) Transfer(ctx context.Context, p services.TransferParams) (bool, error) {
	return true, nil
}

func (c *fakeProviderClient) GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error) {
	return nil, nil
}

type fakeClientFactory struct {
	calls int
}

func (f *fakeClientFactory) New(creds services.Credentials) (services.ProviderClient, error) {
	f.calls++
	return &fakeProviderClient{driveType: creds.DriveType}, nil
}

func TestGetClientCachesByCredentials(t *testing.T) {
	factory := &fakeClientFactory{}
	m := NewDriveManager(factory)

	creds := services.Credentials{DriveType: models.DriveTypeBaidu, RawToken: "token-a"}
	first, err := m.GetClient(context.Background(), creds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.GetClient(context.Background(), creds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the same client instance for identical credentials")
	}
	if factory.calls != 1 {
		t.Fatalf("expected exactly one factory call, got %d", factory.calls)
	}
}

func TestGetClientDistinguishesCredentials(t *testing.T) {
	factory := &fakeClientFactory{}
	m := NewDriveManager(factory)

	a := services.Credentials{DriveType: models.DriveTypeBaidu, RawToken: "token-a"}
	b := services.Credentials{DriveType: models.DriveTypeBaidu, RawToken: "token-b"}

	if _, err := m.GetClient(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.GetClient(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if factory.calls != 2 {
		t.Fatalf("expected two distinct clients for two distinct credentials, got %d factory calls", factory.calls)
	}
}

func TestSweepEvictsClientsIdlePastMaxIdle(t *testing.T) {
	factory := &fakeClientFactory{}
	manager := NewDriveManagerWithTiming(factory, 10*time.Millisecond, 0).(*driveManager)

	creds := services.Credentials{DriveType: models.DriveTypeQuark, RawToken: "token"}
	if _, err := manager.GetClient(context.Background(), creds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	manager.Sweep()

	manager.mu.Lock()
	remaining := len(manager.entries)
	manager.mu.Unlock()

	if remaining != 0 {
		t.Fatalf("expected the idle entry to be evicted, %d remain", remaining)
	}
}

func TestCallDispatchesMkdirByMethodName(t *testing.T) {
	factory := &fakeClientFactory{}
	m := NewDriveManager(factory)

	_, err := m.Call(context.Background(), "token", models.DriveTypeAlist, "mkdir", services.MkdirParams{Path: "/x", FileName: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCallRejectsMismatchedParams(t *testing.T) {
	factory := &fakeClientFactory{}
	m := NewDriveManager(factory)

	_, err := m.Call(context.Background(), "token", models.DriveTypeAlist, "mkdir", services.RemoveParams{})
	if err == nil {
		t.Fatal("expected a validation error when params does not match mkdir's expected type")
	}
	if _, ok := err.(*services.ValidationError); !ok {
		t.Fatalf("expected *services.ValidationError, got %T", err)
	}
}
