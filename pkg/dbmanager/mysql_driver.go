package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

const defaultMySQLPort = "3306"

// MySQLDriver talks to MySQL and MariaDB through go-sql-driver/mysql.
//
// parseTime stays off so DATE/DATETIME values arrive as the server formatted them.
type MySQLDriver struct{}

func NewMySQLDriver() DatabaseDriver {
	return &MySQLDriver{}
}

func (d *MySQLDriver) Dialect() string { return DialectMySQL }

func (d *MySQLDriver) Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error) {
	cfg, err := mysqlConfig(config)
	if err != nil {
		return nil, err
	}

	connector, err := mysqldriver.NewConnector(cfg)
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

func mysqlConfig(config ConnectionConfig) (*mysqldriver.Config, error) {
	if config.Username == nil {
		return nil, ErrMissingCredentials
	}
	port := defaultMySQLPort
	if config.Port != nil && *config.Port != "" {
		port = *config.Port
	}

	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(config.Host, port)
	cfg.User = *config.Username
	if config.Password != nil {
		cfg.Passwd = *config.Password
	}
	cfg.DBName = config.Database

	if config.UseSSL {
		sslMode := "require"
		if config.SSLMode != nil && *config.SSLMode != "" {
			sslMode = *config.SSLMode
		}
		switch sslMode {
		case "disable":
		case "require":
			// encrypt without verifying the certificate chain
			cfg.TLSConfig = "skip-verify"
		case "verify-ca", "verify-full":
			cfg.TLSConfig = "true"
		case "prefer", "preferred":
			cfg.TLSConfig = "preferred"
		default:
			return nil, fmt.Errorf("unsupported ssl mode %q", sslMode)
		}
	}
	return cfg, nil
}

func (d *MySQLDriver) TypeTag(databaseTypeName string) TypeTag {
	return TagForTypeName(databaseTypeName)
}

func (d *MySQLDriver) DefaultPaginationTemplate() string {
	return "SELECT * FROM ({0}) AS t LIMIT {1}, {2}"
}

func (d *MySQLDriver) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

func (d *MySQLDriver) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
