// Package rediscache wraps a services.FileCacheService with a Redis-backed
// read-through layer for ListChildren, the hot path consulted by fast-mode
// recursion. Writes always go through to Postgres first; Redis only ever
// holds a short-TTL copy of what Postgres already confirmed.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

type cachedFileCacheService struct {
	next   services.FileCacheService
	client *redis.Client
	ttl    time.Duration
}

// NewCachedFileCacheService returns svc unchanged if client is nil (the
// Redis second level is disabled per config), otherwise wraps it.
func NewCachedFileCacheService(svc services.FileCacheService, client *redis.Client, ttl time.Duration) services.FileCacheService {
	if client == nil {
		return svc
	}
	return &cachedFileCacheService{next: svc, client: client, ttl: ttl}
}

func childrenKey(accountID uuid.UUID, parentID string, onlyValid bool) string {
	return fmt.Sprintf("filecache:children:%s:%s:%t", accountID, parentID, onlyValid)
}

func (c *cachedFileCacheService) ListChildren(ctx context.Context, accountID uuid.UUID, parentID string, onlyValid bool) ([]models.BaseFileInfo, error) {
	key := childrenKey(accountID, parentID, onlyValid)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var cached []models.BaseFileInfo
		if json.Unmarshal([]byte(raw), &cached) == nil {
			logger.Cache("hit", "served list_children from redis", map[string]interface{}{"parent_id": parentID})
			return cached, nil
		}
	}

	result, err := c.next.ListChildren(ctx, accountID, parentID, onlyValid)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.CacheError("set", "failed to write redis cache entry", err, map[string]interface{}{"parent_id": parentID})
		}
	}

	return result, nil
}

func (c *cachedFileCacheService) GetByFileID(ctx context.Context, accountID uuid.UUID, fileID string) (*models.FileCache, error) {
	return c.next.GetByFileID(ctx, accountID, fileID)
}

func (c *cachedFileCacheService) GetByPath(ctx context.Context, accountID uuid.UUID, path string) (*models.FileCache, error) {
	return c.next.GetByPath(ctx, accountID, path)
}

func (c *cachedFileCacheService) BatchUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string) error {
	err := c.next.BatchUpsert(ctx, accountID, files, version)
	if err == nil {
		c.invalidateParents(ctx, accountID, files)
	}
	return err
}

func (c *cachedFileCacheService) SmartUpsert(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo, version string, force bool) (int, int, error) {
	newCount, updatedCount, err := c.next.SmartUpsert(ctx, accountID, files, version, force)
	if err == nil {
		c.invalidateParents(ctx, accountID, files)
	}
	return newCount, updatedCount, err
}

func (c *cachedFileCacheService) Invalidate(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	n, err := c.next.Invalidate(ctx, accountID, version)
	if err == nil {
		c.flushAccount(ctx, accountID)
	}
	return n, err
}

func (c *cachedFileCacheService) Clear(ctx context.Context, accountID uuid.UUID, version string) (int64, error) {
	n, err := c.next.Clear(ctx, accountID, version)
	if err == nil {
		c.flushAccount(ctx, accountID)
	}
	return n, err
}

func (c *cachedFileCacheService) IsFresh(ctx context.Context, accountID uuid.UUID, parentID string, maxAgeHours int) (bool, error) {
	return c.next.IsFresh(ctx, accountID, parentID, maxAgeHours)
}

// invalidateParents drops the cached listing for every distinct parent_id
// touched by a write, rather than the whole account, since writes are
// scoped to the handful of directories one sync run descended into.
func (c *cachedFileCacheService) invalidateParents(ctx context.Context, accountID uuid.UUID, files []models.BaseFileInfo) {
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f.ParentID] {
			continue
		}
		seen[f.ParentID] = true
		for _, onlyValid := range []bool{true, false} {
			if err := c.client.Del(ctx, childrenKey(accountID, f.ParentID, onlyValid)).Err(); err != nil {
				logger.CacheError("del", "failed to invalidate redis cache entry", err, map[string]interface{}{"parent_id": f.ParentID})
			}
		}
	}
}

func (c *cachedFileCacheService) flushAccount(ctx context.Context, accountID uuid.UUID) {
	pattern := fmt.Sprintf("filecache:children:%s:*", accountID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.CacheError("flush", "failed to delete redis cache entry during flush", err, nil)
		}
	}
}
