package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"querydesk-api/internal/apis/dtos"
	"querydesk-api/internal/constants"
	"querydesk-api/internal/models"
	"querydesk-api/internal/repositories"
	"querydesk-api/pkg/dbmanager"
	"querydesk-api/pkg/logger"
	"querydesk-api/pkg/renderer"
)

// ConnectionOpener establishes a request scoped handle. *dbmanager.Manager
// implements it.
type ConnectionOpener interface {
	Open(ctx context.Context, config dbmanager.ConnectionConfig) (*dbmanager.Handle, error)
}

// QuerySettings bounds paging and exports.
type QuerySettings struct {
	MaxPageSize     int
	ExportBatchSize int
	// LogTimeout bounds the asynchronous write of an execution log entry
	LogTimeout time.Duration
}

type QueryService interface {
	Execute(ctx context.Context, actor string, databaseID uint, req *dtos.ExecuteRequest) (*dtos.ExecuteResponse, uint32, error)
	Page(ctx context.Context, queryID uint, page, size int) (*dtos.PageRowsResponse, uint32, error)
	Export(ctx context.Context, queryID uint, req *dtos.ExportRequest) (*dtos.ExportResult, uint32, error)
	Split(req *dtos.SplitRequest) []dtos.SplitStatement
	ListHistory(ctx context.Context, databaseID uint, limit int) ([]*models.QueryHistory, uint32, error)
	ListExecutions(ctx context.Context, databaseID uint, limit int) ([]*models.ExecutionLog, uint32, error)
	// Drain waits for execution log writes still in flight.
	Drain(ctx context.Context) error
}

type queryService struct {
	resolver    ConnectionResolver
	opener      ConnectionOpener
	executor    *dbmanager.Executor
	historyRepo repositories.QueryHistoryRepository
	logRepo     repositories.ExecutionLogRepository
	settings    QuerySettings

	pendingLogs sync.WaitGroup
}

func NewQueryService(
	resolver ConnectionResolver,
	opener ConnectionOpener,
	executor *dbmanager.Executor,
	historyRepo repositories.QueryHistoryRepository,
	logRepo repositories.ExecutionLogRepository,
	settings QuerySettings,
) QueryService {
	if settings.MaxPageSize <= 0 {
		settings.MaxPageSize = 1000
	}
	if settings.LogTimeout <= 0 {
		settings.LogTimeout = 10 * time.Second
	}
	return &queryService{
		resolver:    resolver,
		opener:      opener,
		executor:    executor,
		historyRepo: historyRepo,
		logRepo:     logRepo,
		settings:    settings,
	}
}

func (s *queryService) Execute(ctx context.Context, actor string, databaseID uint, req *dtos.ExecuteRequest) (*dtos.ExecuteResponse, uint32, error) {
	handle, status, err := s.open(ctx, databaseID)
	if err != nil {
		return nil, status, err
	}
	defer s.release(handle)

	result := s.executor.ExecuteBatch(ctx, handle, req.SQL, dbmanager.BatchOptions{
		DatabaseID: databaseID,
		Actor:      actor,
	})

	response := &dtos.ExecuteResponse{
		BatchID:  uuid.NewString(),
		Query:    result.Probe,
		Outcomes: result.Outcomes,
	}
	s.recordExecution(response.BatchID, databaseID, actor, result)

	return response, http.StatusOK, nil
}

func (s *queryService) Page(ctx context.Context, queryID uint, page, size int) (*dtos.PageRowsResponse, uint32, error) {
	record, status, err := s.findQuery(ctx, queryID)
	if err != nil {
		return nil, status, err
	}

	request := s.pageRequest(page, size)

	handle, status, err := s.open(ctx, record.DatabaseID)
	if err != nil {
		return nil, status, err
	}
	defer s.release(handle)

	rows, err := handle.QueryPage(ctx, record.Statement, request)
	if err != nil {
		return nil, statusOf(constants.ErrCodeStatementExecutionFailed),
			dtos.NewQueryError(constants.ErrCodeStatementExecutionFailed, "statement execution failed", err)
	}
	columns := rows.Columns()
	data, err := renderer.JSONRows(rows)
	if err != nil {
		return nil, statusOf(constants.ErrCodeRenderFailed),
			dtos.NewQueryError(constants.ErrCodeRenderFailed, "failed to render rows", err)
	}

	return &dtos.PageRowsResponse{
		QueryID: queryID,
		Page:    request.Page,
		Size:    request.Size,
		Columns: columns,
		Rows:    data,
	}, http.StatusOK, nil
}

func (s *queryService) Export(ctx context.Context, queryID uint, req *dtos.ExportRequest) (*dtos.ExportResult, uint32, error) {
	format, err := renderer.ParseFormat(req.Format)
	if err != nil {
		return nil, statusOf(constants.ErrCodeInvalidRequest),
			dtos.NewQueryError(constants.ErrCodeInvalidRequest, "unsupported export format", err)
	}

	if format == renderer.FormatUpdate && req.KeyColumns < 1 {
		return nil, statusOf(constants.ErrCodeInvalidRequest),
			dtos.NewQueryError(constants.ErrCodeInvalidRequest, "key_columns must be at least 1 for update exports", nil)
	}

	record, status, err := s.findQuery(ctx, queryID)
	if err != nil {
		return nil, status, err
	}

	table := req.Table
	if table == "" && format.IsSQL() {
		class, ok := dbmanager.Classify(record.Statement)
		if !ok {
			return nil, statusOf(constants.ErrCodeInvalidRequest),
				dtos.NewQueryError(constants.ErrCodeInvalidRequest, "table is required: the stored statement names no table", nil)
		}
		table = class.Name
	}

	handle, status, err := s.open(ctx, record.DatabaseID)
	if err != nil {
		return nil, status, err
	}
	defer s.release(handle)

	var rows dbmanager.RowIterator
	if req.Page > 0 {
		rows, err = handle.QueryPage(ctx, record.Statement, s.pageRequest(req.Page, req.Size))
	} else {
		rows, err = handle.Query(ctx, record.Statement)
	}
	if err != nil {
		return nil, statusOf(constants.ErrCodeStatementExecutionFailed),
			dtos.NewQueryError(constants.ErrCodeStatementExecutionFailed, "statement execution failed", err)
	}

	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = s.settings.ExportBatchSize
	}

	var buf bytes.Buffer
	err = renderer.Render(&buf, rows, format, renderer.Options{
		Table:        table,
		Dialect:      handle.Driver(),
		BatchSize:    batchSize,
		KeyColumns:   req.KeyColumns,
		GroupColumns: req.GroupColumns,
		Multiline:    req.Multiline,
		SheetName:    req.SheetName,
	})
	if errors.Is(err, renderer.ErrInvalidKeySize) {
		return nil, statusOf(constants.ErrCodeInvalidRequest),
			dtos.NewQueryError(constants.ErrCodeInvalidRequest, "key_columns must leave at least one column to set", err)
	}
	if err != nil {
		logger.Warn("QueryService -> Export -> render failed", logger.Ctx{"query_id": queryID, "format": format, "err": err})
		return nil, statusOf(constants.ErrCodeRenderFailed),
			dtos.NewQueryError(constants.ErrCodeRenderFailed, "failed to render export", err)
	}

	return &dtos.ExportResult{
		Filename:    fmt.Sprintf("query-%d.%s", queryID, format.Extension()),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
	}, http.StatusOK, nil
}

func (s *queryService) Split(req *dtos.SplitRequest) []dtos.SplitStatement {
	statements := dbmanager.Split(req.SQL)
	preview := make([]dtos.SplitStatement, len(statements))
	for i, stmt := range statements {
		preview[i] = dtos.SplitStatement{
			Ordinal:     stmt.Ordinal,
			Text:        stmt.Text,
			CommentOnly: dbmanager.IsOnlyComment(stmt.Text),
			Verb:        dbmanager.Verb(stmt.Text),
		}
		if preview[i].CommentOnly {
			continue
		}
		if class, ok := dbmanager.Classify(stmt.Text); ok {
			preview[i].Name = class.Name
			preview[i].Action = class.Action
		}
	}
	return preview
}

func (s *queryService) ListHistory(ctx context.Context, databaseID uint, limit int) ([]*models.QueryHistory, uint32, error) {
	records, err := s.historyRepo.ListByDatabase(ctx, databaseID, clampLimit(limit))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to list query history: %v", err)
	}
	if records == nil {
		records = []*models.QueryHistory{}
	}
	return records, http.StatusOK, nil
}

func (s *queryService) ListExecutions(ctx context.Context, databaseID uint, limit int) ([]*models.ExecutionLog, uint32, error) {
	entries, err := s.logRepo.ListByDatabase(ctx, databaseID, clampLimit(limit))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to list executions: %v", err)
	}
	if entries == nil {
		entries = []*models.ExecutionLog{}
	}
	return entries, http.StatusOK, nil
}

func (s *queryService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pendingLogs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Warn("QueryService -> Drain -> execution log writes still pending", logger.Ctx{"err": ctx.Err()})
		return ctx.Err()
	}
}

// open resolves the registry entry and connects to it. The caller owns the
// returned handle.
func (s *queryService) open(ctx context.Context, databaseID uint) (*dbmanager.Handle, uint32, error) {
	config, err := s.resolver.Resolve(ctx, databaseID)
	if err != nil {
		var qe *dtos.QueryError
		if errors.As(err, &qe) {
			return nil, statusOf(qe.Code), qe
		}
		return nil, statusOf(constants.ErrCodeConnectionResolutionFailed),
			dtos.NewQueryError(constants.ErrCodeConnectionResolutionFailed, "failed to resolve database", err)
	}

	handle, err := s.opener.Open(ctx, *config)
	if err != nil {
		message := "failed to connect to database"
		var ce *dbmanager.ConnectError
		if errors.As(err, &ce) && ce.Stage == "tunnel" {
			message = "failed to open ssh tunnel"
		}
		logger.Warn("QueryService -> open -> connect failed", logger.Ctx{"database_id": databaseID, "err": err})
		return nil, statusOf(constants.ErrCodeExternalConnectFailed),
			dtos.NewQueryError(constants.ErrCodeExternalConnectFailed, message, err)
	}
	return handle, 0, nil
}

func (s *queryService) release(handle *dbmanager.Handle) {
	if err := handle.Close(); err != nil {
		logger.Warn("QueryService -> release -> close failed", logger.Ctx{"database_id": handle.Config().ID, "err": err})
	}
}

func (s *queryService) findQuery(ctx context.Context, queryID uint) (*models.QueryHistory, uint32, error) {
	record, err := s.historyRepo.FindByID(ctx, queryID)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch query: %v", err)
	}
	if record == nil {
		return nil, statusOf(constants.ErrCodeQueryNotFound),
			dtos.NewQueryError(constants.ErrCodeQueryNotFound, fmt.Sprintf("query %d does not exist", queryID), nil)
	}
	return record, 0, nil
}

func (s *queryService) pageRequest(page, size int) dbmanager.PageRequest {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = constants.DefaultPageSize
	}
	if size > s.settings.MaxPageSize {
		size = s.settings.MaxPageSize
	}
	return dbmanager.PageRequest{Page: page, Size: size}
}

// recordExecution appends the batch to the execution log without holding up
// the response.
func (s *queryService) recordExecution(batchID string, databaseID uint, actor string, result *dbmanager.BatchResult) {
	entry := models.NewExecutionLog(batchID, databaseID, actor)
	entry.DurationMs = result.Duration.Milliseconds()
	for _, stmt := range result.Statements {
		entry.Statements = append(entry.Statements, stmt.Text)
	}
	for _, o := range result.Outcomes {
		if o.Failed() {
			entry.Failed++
		}
		entry.Outcomes = append(entry.Outcomes, models.ExecutionLogOutcome{
			Name:     o.Name,
			Action:   o.Action,
			Affected: o.Affected,
			Ordinal:  o.Ordinal,
			Code:     o.Code,
			Message:  o.Message,
		})
	}
	if result.Probe != nil {
		id := result.Probe.ID
		entry.QueryID = &id
	}

	s.pendingLogs.Add(1)
	go func() {
		defer s.pendingLogs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.settings.LogTimeout)
		defer cancel()
		if err := s.logRepo.Insert(ctx, entry); err != nil {
			logger.Error("QueryService -> recordExecution -> failed to write execution log", logger.Ctx{"batch_id": batchID, "err": err})
		}
	}()
}

func statusOf(code string) uint32 {
	return uint32(constants.StatusForCode(code))
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 20
	}
	if limit > 200 {
		return 200
	}
	return limit
}
