package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const defaultPostgresPort = "5432"

// PostgresDriver talks to PostgreSQL compatible servers through lib/pq.
type PostgresDriver struct{}

func NewPostgresDriver() DatabaseDriver {
	return &PostgresDriver{}
}

func (d *PostgresDriver) Dialect() string { return DialectPostgreSQL }

// Open builds a key/value DSN and verifies it with a ping.
func (d *PostgresDriver) Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error) {
	dsn, err := postgresDSN(config)
	if err != nil {
		return nil, err
	}

	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func postgresDSN(config ConnectionConfig) (string, error) {
	if config.Username == nil {
		return "", ErrMissingCredentials
	}
	port := defaultPostgresPort
	if config.Port != nil && *config.Port != "" {
		port = *config.Port
	}

	params := []string{
		"host=" + pqQuote(config.Host),
		"port=" + pqQuote(port),
		"user=" + pqQuote(*config.Username),
		"dbname=" + pqQuote(config.Database),
	}
	if config.Password != nil {
		params = append(params, "password="+pqQuote(*config.Password))
	}

	sslMode := "disable"
	if config.UseSSL {
		sslMode = "require"
		if config.SSLMode != nil && *config.SSLMode != "" {
			sslMode = *config.SSLMode
		}
	}
	params = append(params, "sslmode="+sslMode)

	return strings.Join(params, " "), nil
}

// pqQuote quotes a value for a key/value connection string.
func pqQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (d *PostgresDriver) TypeTag(databaseTypeName string) TypeTag {
	return TagForTypeName(databaseTypeName)
}

func (d *PostgresDriver) DefaultPaginationTemplate() string {
	return "SELECT * FROM ({0}) AS t OFFSET {1} LIMIT {2}"
}

// QuoteIdentifier quotes each dot separated part of name.
func (d *PostgresDriver) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (d *PostgresDriver) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
