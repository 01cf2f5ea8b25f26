package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"querydesk-api/pkg/logger"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("redis key does not exist")

type RedisRepositories struct {
	Client *redis.Client
}

type IRedisRepositories interface {
	Set(key string, data []byte, expiredTime time.Duration, ctx context.Context) error
	Get(key string, ctx context.Context) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	TTL(key string, ctx context.Context) (time.Duration, error)
}

func NewRedisRepositories(client *redis.Client) *RedisRepositories {
	logger.Debug("Redis -> NewRedisRepositories -> initialized")
	return &RedisRepositories{
		Client: client,
	}
}

func (r *RedisRepositories) Set(key string, data []byte, expiredTime time.Duration, ctx context.Context) error {
	if err := r.Client.Set(ctx, key, data, expiredTime).Err(); err != nil {
		logger.Error("Redis -> Set -> failed", logger.Ctx{"key": key, "err": err})
		return err
	}
	logger.Trace("Redis -> Set -> ok", logger.Ctx{"key": key, "ttl": expiredTime.String()})
	return nil
}

func (r *RedisRepositories) Get(key string, ctx context.Context) ([]byte, error) {
	result, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	} else if err != nil {
		logger.Error("Redis -> Get -> failed", logger.Ctx{"key": key, "err": err})
		return nil, err
	}
	return result, nil
}

// Del removes every key in one round trip.
func (r *RedisRepositories) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := r.Client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis -> Del -> failed", logger.Ctx{"keys": keys, "err": err})
		return err
	}
	return nil
}

func (r *RedisRepositories) TTL(key string, ctx context.Context) (time.Duration, error) {
	return r.Client.TTL(ctx, key).Result()
}
