package constants

import "querydesk-api/pkg/dbmanager"

const (
	DatabaseTypePostgreSQL = dbmanager.DialectPostgreSQL
	DatabaseTypeMySQL      = dbmanager.DialectMySQL
)

// SupportedDatabaseTypes lists the dialects the registry accepts.
var SupportedDatabaseTypes = []string{DatabaseTypePostgreSQL, DatabaseTypeMySQL}

const (
	EnvironmentDevelopment = "DEVELOPMENT"
	EnvironmentProduction  = "PRODUCTION"
)

// Storage names
const (
	ExecutionLogCollection = "execution_logs"
	RegistryCacheKeyPrefix = "querydesk:registry:database:"
)

const (
	DefaultPageSize = 50
	ProbeLimit      = 1
)
