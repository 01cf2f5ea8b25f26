package dbmanager

import (
	"context"
	"time"

	"querydesk-api/pkg/logger"
)

// BatchOptions identifies who runs a batch against which registry entry.
type BatchOptions struct {
	DatabaseID uint
	Actor      string
}

// ProbeRecord is emitted when the first statement of a batch is a read. It
// points at the saved history entry and carries the result header.
type ProbeRecord struct {
	ID     uint     `json:"id"`
	Header []Column `json:"header"`
}

// Outcome is one entry of the batch report. Successful entries carry Affected,
// failed ones carry Code and Message.
type Outcome struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Affected *int64 `json:"affected,omitempty"`
	Ordinal  int    `json:"ordinal,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Details  string `json:"details,omitempty"`
}

// Failed reports whether the outcome is an error entry.
func (o Outcome) Failed() bool { return o.Code != "" }

// BatchResult is everything a batch produced.
type BatchResult struct {
	Probe      *ProbeRecord  `json:"query,omitempty"`
	Outcomes   []Outcome     `json:"outcomes"`
	Statements []Statement   `json:"-"`
	Duration   time.Duration `json:"-"`
}

// Executor runs raw statement blocks against an open Handle.
type Executor struct {
	history HistoryStore
	config  Config
}

func NewExecutor(history HistoryStore, config Config) *Executor {
	if config.ProbeLimit <= 0 {
		config.ProbeLimit = DefaultConfig().ProbeLimit
	}
	return &Executor{history: history, config: config}
}

// ExecuteBatch splits raw and runs every statement in order on handle.
// Statement failures are reported inline and never stop the batch.
func (e *Executor) ExecuteBatch(ctx context.Context, handle *Handle, raw string, opts BatchOptions) *BatchResult {
	start := time.Now()
	log := logger.AddContext(logger.Ctx{"database_id": opts.DatabaseID, "actor": opts.Actor})

	b := &batch{result: &BatchResult{Outcomes: []Outcome{}}}
	b.result.Statements = Split(raw)

	for _, stmt := range b.result.Statements {
		if IsOnlyComment(stmt.Text) {
			continue
		}
		e.dispatch(ctx, handle, stmt, opts, b, log)
	}
	b.flush()

	b.result.Duration = time.Since(start)
	log.Debug("Executor -> ExecuteBatch -> done", logger.Ctx{
		"statements": len(b.result.Statements),
		"outcomes":   len(b.result.Outcomes),
		"probe":      b.result.Probe != nil,
		"duration":   b.result.Duration.String(),
	})
	return b.result
}

func (e *Executor) dispatch(ctx context.Context, handle *Handle, stmt Statement, opts BatchOptions, b *batch, log logger.Logger) {
	verb := Verb(stmt.Text)

	if (verb == "SELECT" || verb == "WITH") && b.pristine() {
		e.probe(ctx, handle, stmt, opts, b, log)
		return
	}

	class, ok := Classify(stmt.Text)
	if !ok {
		b.fail(Outcome{
			Ordinal: stmt.Ordinal,
			Code:    CodeStatementUnclassifiable,
			Message: MessageUnclassifiable,
		})
		return
	}

	switch {
	case class.Action == ActionDrop || class.Action == ActionCreate || class.Action == ActionAlter:
		if _, err := handle.Exec(ctx, stmt.Text); err != nil {
			b.fail(executionFailure(class, stmt, err))
			log.Warn("Executor -> dispatch -> statement failed", logger.Ctx{"ordinal": stmt.Ordinal, "err": err})
			return
		}
		b.succeed(class, 1)

	case class.Action == ActionInsert,
		(class.Action == ActionUpdate || class.Action == ActionDelete) && HasWhere(stmt.Text):
		affected, err := handle.Exec(ctx, stmt.Text)
		if err != nil {
			b.fail(executionFailure(class, stmt, err))
			log.Warn("Executor -> dispatch -> statement failed", logger.Ctx{"ordinal": stmt.Ordinal, "err": err})
			return
		}
		b.succeed(class, affected)

	default:
		b.fail(Outcome{
			Name:    class.Name,
			Action:  class.Action,
			Ordinal: stmt.Ordinal,
			Code:    CodeStatementAbnormal,
			Message: MessageAbnormal,
		})
	}
}

// probe runs the first read of a batch with a small page to learn its header
// and records the statement in the query history.
func (e *Executor) probe(ctx context.Context, handle *Handle, stmt Statement, opts BatchOptions, b *batch, log logger.Logger) {
	class, _ := Classify(stmt.Text)
	if class.Action == "" {
		class.Action = ActionSelect
	}

	rows, err := handle.QueryPage(ctx, stmt.Text, PageRequest{Page: 1, Size: e.config.ProbeLimit})
	if err != nil {
		b.fail(executionFailure(class, stmt, err))
		log.Warn("Executor -> probe -> query failed", logger.Ctx{"ordinal": stmt.Ordinal, "err": err})
		return
	}
	header := rows.Columns()
	for rows.Next() {
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		b.fail(executionFailure(class, stmt, err))
		log.Warn("Executor -> probe -> reading rows failed", logger.Ctx{"ordinal": stmt.Ordinal, "err": err})
		return
	}

	id, err := e.history.SaveQuery(ctx, opts.DatabaseID, stmt.Text, opts.Actor)
	if err != nil {
		b.fail(Outcome{
			Name:    class.Name,
			Action:  class.Action,
			Ordinal: stmt.Ordinal,
			Code:    CodeHistorySaveFailed,
			Message: "failed to save query history",
			Details: err.Error(),
		})
		log.Error("Executor -> probe -> failed to save history", logger.Ctx{"err": err})
		return
	}

	b.result.Probe = &ProbeRecord{ID: id, Header: header}
}

func executionFailure(class Classification, stmt Statement, err error) Outcome {
	return Outcome{
		Name:    class.Name,
		Action:  class.Action,
		Ordinal: stmt.Ordinal,
		Code:    CodeStatementExecutionFailed,
		Message: "statement execution failed",
		Details: err.Error(),
	}
}

// batch accumulates outcomes and coalesces consecutive successes that share
// the same (name, action) pair.
type batch struct {
	result  *BatchResult
	pending *Outcome
}

// pristine reports whether nothing has been emitted or buffered yet.
func (b *batch) pristine() bool {
	return len(b.result.Outcomes) == 0 && b.pending == nil && b.result.Probe == nil
}

func (b *batch) succeed(class Classification, affected int64) {
	if b.pending != nil && b.pending.Name == class.Name && b.pending.Action == class.Action {
		*b.pending.Affected += affected
		return
	}
	b.flush()
	b.pending = &Outcome{Name: class.Name, Action: class.Action, Affected: &affected}
}

func (b *batch) fail(o Outcome) {
	b.flush()
	b.result.Outcomes = append(b.result.Outcomes, o)
}

func (b *batch) flush() {
	if b.pending == nil {
		return
	}
	b.result.Outcomes = append(b.result.Outcomes, *b.pending)
	b.pending = nil
}
