package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")
	t.Setenv("SECRET_ENCRYPTION_KEY", testKey)
	t.Setenv("SSH_DIAL_TIMEOUT_SECONDS", "7")
	t.Setenv("MAX_PAGE_SIZE", "not-a-number")
	t.Setenv("DATABASE_TYPE", "MySQL")

	require.NoError(t, LoadEnv())

	assert.True(t, Env.IsDocker)
	assert.Equal(t, "3000", Env.Port)
	assert.Equal(t, "mysql", Env.DatabaseType)
	assert.Equal(t, 1000, Env.MaxPageSize)
	assert.Equal(t, 7*time.Second, Env.DBManagerConfig().DialTimeout)
	assert.Equal(t, 1, Env.DBManagerConfig().ProbeLimit)
	assert.Equal(t, 5*time.Minute, Env.RegistryCacheTTL())
	assert.False(t, Env.IsProduction())
}

func TestLoadEnvValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short encryption key", map[string]string{"SECRET_ENCRYPTION_KEY": "short"}},
		{"unknown system database", map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "DATABASE_TYPE": "sqlite"}},
		{"bad mongo uri", map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "MONGODB_URI": "localhost"}},
		{"negative page size", map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "MAX_PAGE_SIZE": "-1"}},
		{"zero jwt expiry", map[string]string{"SECRET_ENCRYPTION_KEY": testKey, "JWT_EXPIRATION_MILLISECONDS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IS_DOCKER", "true")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Error(t, LoadEnv())
		})
	}
}
