package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk-api/internal/models"
	"querydesk-api/pkg/redis"
)

type fakeRedis struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
	delErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(key string, data []byte, ttl time.Duration, _ context.Context) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = data
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Get(key string, _ context.Context) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, redis.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) TTL(key string, _ context.Context) (time.Duration, error) {
	return f.ttls[key], nil
}

func sampleDatabase() *models.ExternalDatabase {
	serverID := uint(3)
	return &models.ExternalDatabase{
		Name:     "orders",
		Dialect:  "postgresql",
		Host:     "10.0.0.5",
		Port:     "5432",
		Username: "reporter",
		Password: "ciphertext",
		Database: "shop",
		ServerID: &serverID,
		Server: &models.Server{
			Name:       "bastion",
			Host:       "bastion.internal",
			Port:       22,
			Username:   "ops",
			PrivateKey: "key-ciphertext",
			Base:       models.Base{ID: serverID},
		},
		Base: models.Base{ID: 7},
	}
}

func TestRegistryCacheRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	cache := NewRegistryCache(fake, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	cache.Set(ctx, sampleDatabase())
	assert.Equal(t, time.Minute, fake.ttls["querydesk:registry:database:7"])

	got, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, "ciphertext", got.Password, "secrets survive the cache")
	require.NotNil(t, got.Server)
	assert.Equal(t, "key-ciphertext", got.Server.PrivateKey)
	assert.Equal(t, uint(3), *got.ServerID)

	cache.Invalidate(ctx, 7, 8)
	_, ok = cache.Get(ctx, 7)
	assert.False(t, ok)
}

func TestRegistryCacheFailuresAreMisses(t *testing.T) {
	fake := newFakeRedis()
	cache := NewRegistryCache(fake, time.Minute)
	ctx := context.Background()

	fake.setErr = errors.New("down")
	cache.Set(ctx, sampleDatabase())
	assert.Empty(t, fake.data)

	fake.setErr = nil
	cache.Set(ctx, sampleDatabase())
	fake.getErr = errors.New("down")
	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	fake.getErr = nil
	fake.delErr = errors.New("down")
	cache.Invalidate(ctx, 7)
	_, ok = cache.Get(ctx, 7)
	assert.True(t, ok)
}

func TestRegistryCacheDropsGarbage(t *testing.T) {
	fake := newFakeRedis()
	fake.data["querydesk:registry:database:7"] = []byte("not gob")
	cache := NewRegistryCache(fake, time.Minute)

	_, ok := cache.Get(context.Background(), 7)
	assert.False(t, ok)
	assert.NotContains(t, fake.data, "querydesk:registry:database:7")
}
