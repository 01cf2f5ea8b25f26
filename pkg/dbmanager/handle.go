package dbmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Handle is one live connection to an external database, plus the tunnel
// feeding it when there is one. It belongs to a single request.
type Handle struct {
	driver DatabaseDriver
	db     *sql.DB
	tunnel io.Closer
	config ConnectionConfig

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

// NewHandle wraps an open database. Statements of a batch must see each
// other's session state, so the pool is pinned to a single connection.
func NewHandle(driver DatabaseDriver, db *sql.DB, tunnel io.Closer, config ConnectionConfig) *Handle {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Handle{driver: driver, db: db, tunnel: tunnel, config: config}
}

func (h *Handle) Dialect() string { return h.driver.Dialect() }

func (h *Handle) Driver() DatabaseDriver { return h.driver }

func (h *Handle) Config() ConnectionConfig { return h.config }

// PaginationTemplate returns the registry template or the dialect default.
func (h *Handle) PaginationTemplate() string {
	if h.config.PaginationTemplate != "" {
		return h.config.PaginationTemplate
	}
	return h.driver.DefaultPaginationTemplate()
}

// Exec runs a statement that does not return rows.
func (h *Handle) Exec(ctx context.Context, statement string) (int64, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	res, err := h.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// Query runs statement as is.
func (h *Handle) Query(ctx context.Context, statement string) (RowIterator, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	rows, err := h.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	return newSQLRowIterator(rows, h.driver)
}

// QueryPage wraps statement in the pagination template and runs it.
func (h *Handle) QueryPage(ctx context.Context, statement string, page PageRequest) (RowIterator, error) {
	return h.Query(ctx, ApplyPagination(h.PaginationTemplate(), statement, page, h.config.UsePage))
}

// Close releases the connection and then the tunnel, on every call path.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed = true
		var errs []error
		if h.db != nil {
			errs = append(errs, h.db.Close())
		}
		if h.tunnel != nil {
			errs = append(errs, h.tunnel.Close())
		}
		h.closeErr = errors.Join(errs...)
	})
	return h.closeErr
}
