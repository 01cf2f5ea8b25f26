package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"querydesk-api/internal/constants"
	"querydesk-api/pkg/dbmanager"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string
	LogLevel          string

	// Auth configs
	JWTSecret                 string
	JWTExpirationMilliseconds int
	SecretEncryptionKey       string

	// System-of-record database configs
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUsername string
	DatabasePassword string

	// MongoDB configs
	MongoURI          string
	MongoDatabaseName string

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// Query proxy configs
	RegistryCacheTTLSeconds int
	ExportBatchSize         int
	MaxPageSize             int
	SSHDialTimeoutSeconds   int
	ProbeLimit              int
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3000")
	Env.Environment = getEnvWithDefault("ENVIRONMENT", constants.EnvironmentDevelopment)
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	Env.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	// Auth configs
	Env.JWTSecret = getRequiredEnv("JWT_SECRET", "querydesk_jwt_secret")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*60*24) // 1 day default
	Env.SecretEncryptionKey = getRequiredEnv("SECRET_ENCRYPTION_KEY", "")

	// System-of-record database
	Env.DatabaseType = strings.ToLower(getEnvWithDefault("DATABASE_TYPE", dbmanager.DialectPostgreSQL))
	Env.DatabaseHost = getRequiredEnv("DATABASE_HOST", "localhost")
	Env.DatabasePort = getRequiredEnv("DATABASE_PORT", "5432")
	Env.DatabaseName = getRequiredEnv("DATABASE_NAME", "querydesk")
	Env.DatabaseUsername = getRequiredEnv("DATABASE_USERNAME", "querydesk")
	Env.DatabasePassword = getRequiredEnv("DATABASE_PASSWORD", "")

	// MongoDB and Redis
	Env.MongoURI = getRequiredEnv("MONGODB_URI", "mongodb://localhost:27017/querydesk")
	Env.MongoDatabaseName = getRequiredEnv("MONGODB_NAME", "querydesk")
	Env.RedisHost = getRequiredEnv("REDIS_HOST", "localhost")
	Env.RedisPort = getRequiredEnv("REDIS_PORT", "6379")
	Env.RedisUsername = getEnvWithDefault("REDIS_USERNAME", "")
	Env.RedisPassword = getEnvWithDefault("REDIS_PASSWORD", "")

	// Query proxy
	Env.RegistryCacheTTLSeconds = getIntEnvWithDefault("REGISTRY_CACHE_TTL_SECONDS", 300)
	Env.ExportBatchSize = getIntEnvWithDefault("EXPORT_BATCH_SIZE", 100)
	Env.MaxPageSize = getIntEnvWithDefault("MAX_PAGE_SIZE", 1000)
	Env.SSHDialTimeoutSeconds = getIntEnvWithDefault("SSH_DIAL_TIMEOUT_SECONDS", 15)
	Env.ProbeLimit = getIntEnvWithDefault("PROBE_LIMIT", 1)

	return validateConfig()
}

// DBManagerConfig is the explicit configuration handed to the query proxy.
func (e Environment) DBManagerConfig() dbmanager.Config {
	return dbmanager.Config{
		DialTimeout: time.Duration(e.SSHDialTimeoutSeconds) * time.Second,
		ProbeLimit:  e.ProbeLimit,
	}
}

// RegistryCacheTTL returns the lifetime of cached registry entries.
func (e Environment) RegistryCacheTTL() time.Duration {
	return time.Duration(e.RegistryCacheTTLSeconds) * time.Second
}

// IsProduction reports whether logs should be emitted as JSON.
func (e Environment) IsProduction() bool {
	return e.Environment != constants.EnvironmentDevelopment
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	if !isValidURI(Env.MongoURI) {
		return fmt.Errorf("invalid MONGODB_URI format: %s", Env.MongoURI)
	}

	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	if len(Env.SecretEncryptionKey) != 32 {
		return fmt.Errorf("SECRET_ENCRYPTION_KEY must be exactly 32 bytes, got: %d", len(Env.SecretEncryptionKey))
	}

	if Env.DatabaseType != dbmanager.DialectPostgreSQL && Env.DatabaseType != dbmanager.DialectMySQL {
		return fmt.Errorf("DATABASE_TYPE must be %s or %s, got: %s", dbmanager.DialectPostgreSQL, dbmanager.DialectMySQL, Env.DatabaseType)
	}

	if Env.MaxPageSize <= 0 || Env.ExportBatchSize <= 0 || Env.SSHDialTimeoutSeconds <= 0 || Env.ProbeLimit <= 0 {
		return fmt.Errorf("MAX_PAGE_SIZE, EXPORT_BATCH_SIZE, SSH_DIAL_TIMEOUT_SECONDS and PROBE_LIMIT must be positive")
	}

	return nil
}

func isValidURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}
