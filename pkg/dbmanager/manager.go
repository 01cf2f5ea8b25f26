package dbmanager

import (
	"context"
	"fmt"
	"sync"

	"querydesk-api/pkg/logger"
)

// Manager owns the dialect drivers and opens per-request handles.
// Handles are never pooled or shared across requests.
type Manager struct {
	drivers map[string]DatabaseDriver
	config  Config
	mu      sync.RWMutex
}

// NewManager registers the PostgreSQL and MySQL drivers.
func NewManager(config Config) *Manager {
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultConfig().DialTimeout
	}
	if config.ProbeLimit <= 0 {
		config.ProbeLimit = DefaultConfig().ProbeLimit
	}

	m := &Manager{
		drivers: make(map[string]DatabaseDriver),
		config:  config,
	}
	m.RegisterDriver(NewPostgresDriver())
	m.RegisterDriver(NewMySQLDriver())
	return m
}

// RegisterDriver adds or replaces the driver for its dialect.
func (m *Manager) RegisterDriver(driver DatabaseDriver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.Dialect()] = driver
}

// Driver returns the driver for dialect.
func (m *Manager) Driver(dialect string) (DatabaseDriver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
	return driver, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config { return m.config }

// Open establishes the tunnel when one is configured, then the database
// connection through it. On failure everything already opened is released.
func (m *Manager) Open(ctx context.Context, config ConnectionConfig) (*Handle, error) {
	driver, err := m.Driver(config.Type)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.DialTimeout)
	defer cancel()

	var tunnel *Tunnel
	target := config
	if config.Tunnel != nil {
		port := ""
		if config.Port != nil {
			port = *config.Port
		}
		if port == "" {
			port = defaultPort(config.Type)
		}
		tunnel, err = OpenTunnel(ctx, *config.Tunnel, config.Host, port, m.config.DialTimeout)
		if err != nil {
			return nil, &ConnectError{Stage: "tunnel", Err: err}
		}
		host, localPort := tunnel.LocalAddr()
		target.Host = host
		target.Port = &localPort
	}

	db, err := driver.Open(ctx, target)
	if err != nil {
		if tunnel != nil {
			tunnel.Close()
		}
		logger.Error("Manager -> Open -> failed to connect", logger.Ctx{
			"database_id": config.ID,
			"dialect":     config.Type,
			"err":         err,
		})
		return nil, &ConnectError{Stage: "database", Err: err}
	}

	logger.Debug("Manager -> Open -> connected", logger.Ctx{
		"database_id": config.ID,
		"dialect":     config.Type,
		"tunneled":    tunnel != nil,
	})

	if tunnel != nil {
		return NewHandle(driver, db, tunnel, config), nil
	}
	return NewHandle(driver, db, nil, config), nil
}

func defaultPort(dialect string) string {
	if dialect == DialectMySQL {
		return defaultMySQLPort
	}
	return defaultPostgresPort
}
