//go:build integration

package repositories_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"querydesk-api/config"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/di"
	"querydesk-api/internal/models"
	"querydesk-api/internal/repositories"
)

func openSystemDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("querydesk"),
		postgres.WithUsername("querydesk"),
		postgres.WithPassword("querydesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, nat.Port("5432/tcp"), "")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(endpoint)
	require.NoError(t, err)

	db, err := di.OpenSystemDatabase(config.Environment{
		Environment:      constants.EnvironmentProduction,
		DatabaseType:     constants.DatabaseTypePostgreSQL,
		DatabaseHost:     host,
		DatabasePort:     port,
		DatabaseName:     "querydesk",
		DatabaseUsername: "querydesk",
		DatabasePassword: "querydesk",
	})
	require.NoError(t, err)
	require.NoError(t, di.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestIntegrationRegistryRepositories(t *testing.T) {
	ctx := context.Background()
	db := openSystemDatabase(t)

	servers := repositories.NewServerRepository(db)
	databases := repositories.NewDatabaseRepository(db)
	history := repositories.NewQueryHistoryRepository(db)

	server := &models.Server{Name: "bastion", Host: "10.0.0.1", Port: 22, Username: "ops", Password: "cipher"}
	require.NoError(t, servers.Create(ctx, server))

	entry := &models.ExternalDatabase{
		Name:     "orders",
		Dialect:  constants.DatabaseTypeMySQL,
		Host:     "10.0.0.2",
		Port:     "3306",
		Username: "app",
		Password: "cipher",
		Database: "shop",
		ServerID: &server.ID,
	}
	require.NoError(t, databases.Create(ctx, entry))

	t.Run("duplicate names are rejected", func(t *testing.T) {
		err := databases.Create(ctx, &models.ExternalDatabase{Name: "orders", Dialect: "mysql", Host: "x"})
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("find preloads the server", func(t *testing.T) {
		found, err := databases.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.NotNil(t, found.Server)
		assert.Equal(t, "bastion", found.Server.Name)

		ids, err := databases.ListIDsByServer(ctx, server.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{entry.ID}, ids)
	})

	t.Run("history is newest first", func(t *testing.T) {
		first, err := history.SaveQuery(ctx, entry.ID, "SELECT 1", "alice")
		require.NoError(t, err)
		second, err := history.SaveQuery(ctx, entry.ID, "SELECT 2", "bob")
		require.NoError(t, err)

		records, err := history.ListByDatabase(ctx, entry.ID, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, second, records[0].ID)
		assert.Equal(t, first, records[1].ID)

		missing, err := history.FindByID(ctx, second+100)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("deleting the server detaches the database", func(t *testing.T) {
		deleted, err := servers.Delete(ctx, server.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		found, err := databases.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Nil(t, found.ServerID)
	})

	t.Run("list pages", func(t *testing.T) {
		items, total, err := databases.List(ctx, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, items, 1)
	})
}
