package di

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/dig"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"querydesk-api/config"
	"querydesk-api/internal/apis/handlers"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/internal/repositories"
	"querydesk-api/internal/services"
	"querydesk-api/internal/utils"
	"querydesk-api/pkg/dbmanager"
	"querydesk-api/pkg/logger"
	"querydesk-api/pkg/mongodb"
	"querydesk-api/pkg/redis"
)

var DiContainer *dig.Container

var closers []func(ctx context.Context) error

func Initialize() {
	DiContainer = dig.New()

	// System-of-record database
	db, err := OpenSystemDatabase(config.Env)
	if err != nil {
		logger.Fatal("DI -> failed to open system database", logger.Ctx{"err": err})
	}
	if err := Migrate(db); err != nil {
		logger.Fatal("DI -> failed to migrate system database", logger.Ctx{"err": err})
	}

	// Initialize MongoDB
	mongodbClient, err := mongodb.InitializeDatabaseConnection(mongodb.MongoDbConfigModel{
		ConnectionUrl: config.Env.MongoURI,
		DatabaseName:  config.Env.MongoDatabaseName,
	})
	if err != nil {
		logger.Fatal("DI -> failed to connect to MongoDB", logger.Ctx{"err": err})
	}

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		logger.Fatal("DI -> failed to initialize Redis client", logger.Ctx{"err": err})
	}
	redisRepo := redis.NewRedisRepositories(redisClient)

	closers = append(closers,
		func(context.Context) error { return redisClient.Close() },
		mongodbClient.Disconnect,
		func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)

	cipher, err := utils.NewSecretCipher(config.Env.SecretEncryptionKey)
	if err != nil {
		logger.Fatal("DI -> failed to build secret cipher", logger.Ctx{"err": err})
	}
	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
	)

	// Provide all dependencies to the container
	provide(func() *gorm.DB { return db }, "system database")
	provide(func() *mongodb.MongoDBClient { return mongodbClient }, "MongoDB client")
	provide(func() redis.IRedisRepositories { return redisRepo }, "Redis repositories")
	provide(func() utils.SecretCipher { return cipher }, "secret cipher")
	provide(func() utils.JWTService { return jwtService }, "JWT service")

	// Repositories
	provide(repositories.NewDatabaseRepository, "database repository")
	provide(repositories.NewServerRepository, "server repository")
	provide(repositories.NewQueryHistoryRepository, "query history repository")
	provide(repositories.NewExecutionLogRepository, "execution log repository")
	provide(func(redisRepo redis.IRedisRepositories) repositories.RegistryCache {
		return repositories.NewRegistryCache(redisRepo, config.Env.RegistryCacheTTL())
	}, "registry cache")

	// Query proxy
	provide(func() *dbmanager.Manager {
		return dbmanager.NewManager(config.Env.DBManagerConfig())
	}, "DB manager")
	provide(func(history repositories.QueryHistoryRepository) *dbmanager.Executor {
		return dbmanager.NewExecutor(history, config.Env.DBManagerConfig())
	}, "statement executor")

	// Services
	provide(services.NewRegistryService, "registry service")
	provide(func(
		registry services.RegistryService,
		manager *dbmanager.Manager,
		executor *dbmanager.Executor,
		history repositories.QueryHistoryRepository,
		executionLogs repositories.ExecutionLogRepository,
	) services.QueryService {
		return services.NewQueryService(registry, manager, executor, history, executionLogs, services.QuerySettings{
			MaxPageSize:     config.Env.MaxPageSize,
			ExportBatchSize: config.Env.ExportBatchSize,
		})
	}, "query service")

	// Handlers
	provide(handlers.NewRegistryHandler, "registry handler")
	provide(handlers.NewQueryHandler, "query handler")

	// Closers run in reverse, so pending execution logs reach MongoDB before it disconnects
	closers = append(closers, drainQueryService)
}

func drainQueryService(ctx context.Context) error {
	return DiContainer.Invoke(func(queryService services.QueryService) error {
		return queryService.Drain(ctx)
	})
}

// Shutdown releases the infrastructure clients opened by Initialize.
func Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i](ctx))
	}
	closers = nil
	return errors.Join(errs...)
}

func provide(constructor interface{}, name string) {
	if err := DiContainer.Provide(constructor); err != nil {
		logger.Fatal("DI -> failed to provide "+name, logger.Ctx{"err": err})
	}
}

// OpenSystemDatabase connects gorm to the registry database selected by
// DATABASE_TYPE.
func OpenSystemDatabase(env config.Environment) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch env.DatabaseType {
	case constants.DatabaseTypePostgreSQL:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			env.DatabaseHost, env.DatabasePort, env.DatabaseUsername, env.DatabasePassword, env.DatabaseName)
		dialector = postgres.Open(dsn)
	case constants.DatabaseTypeMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			env.DatabaseUsername, env.DatabasePassword, net.JoinHostPort(env.DatabaseHost, env.DatabasePort), env.DatabaseName)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE %q", env.DatabaseType)
	}

	logLevel := gormlogger.Warn
	if !env.IsProduction() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", env.DatabaseType, err)
	}
	logger.Info("DI -> OpenSystemDatabase -> connected", logger.Ctx{"type": env.DatabaseType, "host": env.DatabaseHost})
	return db, nil
}

// Migrate creates or updates the registry tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Server{}, &models.ExternalDatabase{}, &models.QueryHistory{})
}

// GetRegistryHandler retrieves the RegistryHandler from the DI container
func GetRegistryHandler() (*handlers.RegistryHandler, error) {
	var handler *handlers.RegistryHandler
	err := DiContainer.Invoke(func(h *handlers.RegistryHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetQueryHandler retrieves the QueryHandler from the DI container
func GetQueryHandler() (*handlers.QueryHandler, error) {
	var handler *handlers.QueryHandler
	err := DiContainer.Invoke(func(h *handlers.QueryHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

func GetJWTService() (utils.JWTService, error) {
	var service utils.JWTService
	err := DiContainer.Invoke(func(s utils.JWTService) {
		service = s
	})
	return service, err
}
