package dbmanager

import (
	"context"
	"database/sql"
	"time"
)

// Supported external dialects
const (
	DialectPostgreSQL = "postgresql"
	DialectMySQL      = "mysql"
)

// ConnectionConfig holds everything needed to reach one external database.
// It is produced by the registry and consumed once per request.
type ConnectionConfig struct {
	ID       uint    `json:"id"`
	Type     string  `json:"type"`
	Host     string  `json:"host"`
	Port     *string `json:"port"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Database string  `json:"database"`

	// SSL/TLS Configuration
	UseSSL  bool    `json:"use_ssl"`
	SSLMode *string `json:"ssl_mode,omitempty"` // disable, require, verify-ca, verify-full

	// Pagination template with {0} inner query, {1} offset (or page) and {2} limit
	PaginationTemplate string `json:"pagination_template"`
	UsePage            bool   `json:"use_page"`

	// Tunnel is set when the database is only reachable through an SSH server
	Tunnel *TunnelConfig `json:"tunnel,omitempty"`
}

// TunnelConfig describes the SSH server a connection is tunneled through.
type TunnelConfig struct {
	ServerID   uint   `json:"server_id"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"-"`
	PrivateKey string `json:"-"`
	HostKey    string `json:"host_key,omitempty"` // authorized_keys format, empty disables host key checking
}

// Config is injected once at startup into the Manager and Executor.
type Config struct {
	// DialTimeout bounds SSH dial and database ping when establishing a connection
	DialTimeout time.Duration
	// ProbeLimit is the number of rows fetched when probing the shape of a read statement
	ProbeLimit int
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		DialTimeout: 15 * time.Second,
		ProbeLimit:  1,
	}
}

// DatabaseDriver is the per-dialect capability set.
type DatabaseDriver interface {
	// Dialect returns the registry name of the dialect
	Dialect() string
	// Open establishes a fresh *sql.DB against host:port, which may be a tunnel endpoint
	Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error)
	// TypeTag maps a driver reported column type name to a TypeTag
	TypeTag(databaseTypeName string) TypeTag
	// DefaultPaginationTemplate is used when the registry does not carry one
	DefaultPaginationTemplate() string
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
	// BoolLiteral renders a boolean in SQL
	BoolLiteral(b bool) string
}

// HistoryStore persists the first read statement of a batch.
type HistoryStore interface {
	SaveQuery(ctx context.Context, databaseID uint, statement string, actor string) (uint, error)
}

// Column describes one result column.
type Column struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Tag  TypeTag `json:"-"`
}
