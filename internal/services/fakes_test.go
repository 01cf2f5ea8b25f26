package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/pkg/dbmanager"
)

// sqliteDriver lets the query service run against a file backed sqlite
// database instead of a remote server.
type sqliteDriver struct{}

func (sqliteDriver) Dialect() string { return "sqlite" }

func (sqliteDriver) Open(ctx context.Context, config dbmanager.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", config.Database)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (sqliteDriver) TypeTag(name string) dbmanager.TypeTag { return dbmanager.TagForTypeName(name) }

func (sqliteDriver) DefaultPaginationTemplate() string {
	return "SELECT * FROM ({0}) AS t LIMIT {2} OFFSET {1}"
}

func (sqliteDriver) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (sqliteDriver) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// countingOpener wraps a Manager and remembers every handle it opened.
type countingOpener struct {
	manager *dbmanager.Manager
	handles []*dbmanager.Handle
}

func (o *countingOpener) Open(ctx context.Context, config dbmanager.ConnectionConfig) (*dbmanager.Handle, error) {
	h, err := o.manager.Open(ctx, config)
	if err == nil {
		o.handles = append(o.handles, h)
	}
	return h, err
}

type fakeResolver struct {
	configs map[uint]*dbmanager.ConnectionConfig
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, id uint) (*dbmanager.ConnectionConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.configs[id]
	if !ok {
		return nil, dtos.NewQueryError(constants.ErrCodeConnectionResolutionFailed, "not registered", nil)
	}
	copied := *c
	return &copied, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*models.QueryHistory
	saveErr error
}

func (f *fakeHistoryRepo) SaveQuery(_ context.Context, databaseID uint, statement string, actor string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	record := &models.QueryHistory{
		ID:         uint(len(f.records) + 1),
		DatabaseID: databaseID,
		Statement:  statement,
		CreatedBy:  actor,
		CreatedAt:  time.Now(),
	}
	f.records = append(f.records, record)
	return record.ID, nil
}

func (f *fakeHistoryRepo) FindByID(_ context.Context, id uint) (*models.QueryHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeHistoryRepo) ListByDatabase(_ context.Context, databaseID uint, limit int) ([]*models.QueryHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.QueryHistory
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if f.records[i].DatabaseID == databaseID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

type fakeExecutionLogs struct {
	mu      sync.Mutex
	entries []*models.ExecutionLog
	// block holds Insert until closed when set
	block chan struct{}
}

func (f *fakeExecutionLogs) Insert(_ context.Context, entry *models.ExecutionLog) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeExecutionLogs) ListByDatabase(_ context.Context, databaseID uint, limit int) ([]*models.ExecutionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ExecutionLog
	for _, e := range f.entries {
		if e.DatabaseID == databaseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type queryFixture struct {
	service  *queryService
	opener   *countingOpener
	resolver *fakeResolver
	history  *fakeHistoryRepo
	logs     *fakeExecutionLogs
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()

	manager := dbmanager.NewManager(dbmanager.DefaultConfig())
	manager.RegisterDriver(sqliteDriver{})

	path := filepath.Join(t.TempDir(), "external.db")
	fx := &queryFixture{
		opener: &countingOpener{manager: manager},
		resolver: &fakeResolver{configs: map[uint]*dbmanager.ConnectionConfig{
			1: {ID: 1, Type: "sqlite", Database: path},
		}},
		history: &fakeHistoryRepo{},
		logs:    &fakeExecutionLogs{},
	}
	fx.service = NewQueryService(
		fx.resolver,
		fx.opener,
		dbmanager.NewExecutor(fx.history, dbmanager.DefaultConfig()),
		fx.history,
		fx.logs,
		QuerySettings{MaxPageSize: 3, ExportBatchSize: 2},
	).(*queryService)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE orders (id INTEGER, item TEXT, price NUMERIC)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders VALUES (1, 'tea', 3.5), (2, 'coffee', 4), (3, 'milk', 1.25), (4, 'juice', 2), (5, 'water', 1)`)
	require.NoError(t, err)
	return fx
}

// assertReleased fails when a handle opened by the service is still usable.
func (fx *queryFixture) assertReleased(t *testing.T) {
	t.Helper()
	for _, h := range fx.opener.handles {
		_, err := h.Exec(context.Background(), "SELECT 1")
		require.ErrorIs(t, err, dbmanager.ErrHandleClosed)
	}
}
