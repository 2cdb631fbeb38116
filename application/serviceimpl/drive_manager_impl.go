package serviceimpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

const (
	defaultMaxIdle         = 30 * time.Minute
	defaultCleanupInterval = 1 * time.Hour
)

// clientFactory is the subset of infrastructure/providers.Registry the
// manager depends on, kept as an interface so tests can stub it without
// constructing real provider clients.
type clientFactory interface {
	New(creds services.Credentials) (services.ProviderClient, error)
}

type cacheEntry struct {
	client   services.ProviderClient
	lastUsed time.Time
}

// driveManager is the process-wide (drive_type, hash(credentials)) ->
// ProviderClient cache described for C2: one client lives per distinct
// credential tuple, evicted after it sits idle past maxIdle, with the
// sweep piggybacked on call arrival rather than run by a ticker goroutine.
type driveManager struct {
	factory clientFactory

	mu      sync.Mutex
	entries map[string]*cacheEntry

	maxIdle         time.Duration
	cleanupInterval time.Duration
	lastSweep       time.Time
}

func NewDriveManager(factory clientFactory) services.DriveManager {
	return &driveManager{
		factory:         factory,
		entries:         make(map[string]*cacheEntry),
		maxIdle:         defaultMaxIdle,
		cleanupInterval: defaultCleanupInterval,
	}
}

// NewDriveManagerWithTiming is the test/ops seam for overriding the default
// idle and sweep windows.
func NewDriveManagerWithTiming(factory clientFactory, maxIdle, cleanupInterval time.Duration) services.DriveManager {
	m := NewDriveManager(factory).(*driveManager)
	m.maxIdle = maxIdle
	m.cleanupInterval = cleanupInterval
	return m
}

func cacheKey(creds services.Credentials) string {
	sum := sha256.Sum256([]byte(creds.RawToken))
	return string(creds.DriveType) + ":" + hex.EncodeToString(sum[:])
}

func (m *driveManager) GetClient(ctx context.Context, creds services.Credentials) (services.ProviderClient, error) {
	m.Sweep()

	key := cacheKey(creds)

	m.mu.Lock()
	if entry, ok := m.entries[key]; ok {
		entry.lastUsed = time.Now()
		m.mu.Unlock()
		return entry.client, nil
	}
	m.mu.Unlock()

	client, err := m.factory.New(creds)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if entry, ok := m.entries[key]; ok {
		// A concurrent caller registered a client for this tuple while this
		// one was being built; keep the registered client.
		entry.lastUsed = time.Now()
		m.mu.Unlock()
		return entry.client, nil
	}
	m.entries[key] = &cacheEntry{client: client, lastUsed: time.Now()}
	m.mu.Unlock()

	return client, nil
}

func (m *driveManager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastSweep.IsZero() && now.Sub(m.lastSweep) < m.cleanupInterval {
		return
	}
	m.lastSweep = now

	evicted := 0
	for key, entry := range m.entries {
		if now.Sub(entry.lastUsed) > m.maxIdle {
			delete(m.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Provider("sweep", fmt.Sprintf("evicted %d idle provider clients", evicted), nil)
	}
}

func (m *driveManager) Call(ctx context.Context, xToken string, driveType models.DriveType, methodName string, params any) (any, error) {
	client, err := m.GetClient(ctx, services.Credentials{DriveType: driveType, RawToken: xToken})
	if err != nil {
		return nil, err
	}

	switch methodName {
	case "get_user_info":
		return client.GetUserInfo(ctx)

	case "list_disk":
		p, ok := params.(services.ListDiskParams)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "list_disk requires ListDiskParams"}
		}
		return client.ListDisk(ctx, p)

	case "list_share":
		p, ok := params.(services.ListShareParams)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "list_share requires ListShareParams"}
		}
		return client.ListShare(ctx, p)

	case "mkdir":
		p, ok := params.(services.MkdirParams)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "mkdir requires MkdirParams"}
		}
		return client.Mkdir(ctx, p.Path, p.ParentID, p.FileName, p.ReturnIfExists)

	case "remove":
		p, ok := params.(services.RemoveParams)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "remove requires RemoveParams"}
		}
		return client.Remove(ctx, p)

	case "transfer":
		p, ok := params.(services.TransferParams)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "transfer requires TransferParams"}
		}
		return client.Transfer(ctx, p)

	case "get_relationships":
		p, ok := params.(models.RelationshipKind)
		if !ok {
			return nil, &services.ValidationError{Field: "params", Reason: "get_relationships requires a RelationshipKind"}
		}
		return client.GetRelationships(ctx, p)

	default:
		return nil, &services.ValidationError{Field: "method_name", Reason: "unknown dispatch method " + methodName}
	}
}
