package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"querydesk-api/pkg/logger"
)

const connectAttempts = 5

// RedisClient connects to redis and pings it until it answers or the attempts
// run out.
func RedisClient(redisHost, redisPort, redisUsername, redisPassword string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(redisHost, redisPort),
		Username:     redisUsername,
		Password:     redisPassword,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	for i := 0; i < connectAttempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			logger.Info("Redis -> RedisClient -> connected", logger.Ctx{"addr": client.Options().Addr})
			return client, nil
		}
		logger.Warn("Redis -> RedisClient -> ping failed", logger.Ctx{"attempt": i + 1, "of": connectAttempts, "err": err})
		select {
		case <-ctx.Done():
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectAttempts, err)
}
