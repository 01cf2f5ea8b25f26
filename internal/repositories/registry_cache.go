package repositories

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"strconv"
	"time"

	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/pkg/logger"
	"querydesk-api/pkg/redis"
)

// RegistryCache keeps resolved registry entries in redis. Secrets stay
// encrypted in the cached form. Every failure is logged and treated as a miss.
type RegistryCache interface {
	Get(ctx context.Context, id uint) (*models.ExternalDatabase, bool)
	Set(ctx context.Context, database *models.ExternalDatabase)
	Invalidate(ctx context.Context, ids ...uint)
}

type registryCache struct {
	redis redis.IRedisRepositories
	ttl   time.Duration
}

func NewRegistryCache(redis redis.IRedisRepositories, ttl time.Duration) RegistryCache {
	return &registryCache{redis: redis, ttl: ttl}
}

func registryCacheKey(id uint) string {
	return constants.RegistryCacheKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

func (c *registryCache) Get(ctx context.Context, id uint) (*models.ExternalDatabase, bool) {
	data, err := c.redis.Get(registryCacheKey(id), ctx)
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotFound) {
			logger.Warn("RegistryCache -> Get -> lookup failed", logger.Ctx{"id": id, "err": err})
		}
		return nil, false
	}

	var database models.ExternalDatabase
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&database); err != nil {
		logger.Warn("RegistryCache -> Get -> dropping undecodable entry", logger.Ctx{"id": id, "err": err})
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &database, true
}

func (c *registryCache) Set(ctx context.Context, database *models.ExternalDatabase) {
	data, err := encodeRegistryEntry(database)
	if err != nil {
		logger.Warn("RegistryCache -> Set -> encode failed", logger.Ctx{"id": database.ID, "err": err})
		return
	}
	if err := c.redis.Set(registryCacheKey(database.ID), data, c.ttl, ctx); err != nil {
		logger.Warn("RegistryCache -> Set -> store failed", logger.Ctx{"id": database.ID, "err": err})
	}
}

func (c *registryCache) Invalidate(ctx context.Context, ids ...uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = registryCacheKey(id)
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		logger.Warn("RegistryCache -> Invalidate -> delete failed", logger.Ctx{"ids": ids, "err": err})
	}
}

func encodeRegistryEntry(database *models.ExternalDatabase) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(database); err != nil {
		return nil, fmt.Errorf("failed to encode registry entry: %w", err)
	}
	return buf.Bytes(), nil
}
