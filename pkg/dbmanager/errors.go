package dbmanager

import "errors"

// Codes carried by per-statement outcomes. A failing statement never aborts
// the batch; its outcome carries one of these.
const (
	CodeStatementUnclassifiable  = "STATEMENT_UNCLASSIFIABLE"
	CodeStatementExecutionFailed = "STATEMENT_EXECUTION_FAILED"
	CodeStatementAbnormal        = "STATEMENT_ABNORMAL"
	CodeHistorySaveFailed        = "HISTORY_SAVE_FAILED"
	MessageAbnormal              = "Abnormal"
	MessageUnclassifiable        = "statement did not match any known pattern"
)

var (
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	ErrHandleClosed       = errors.New("connection handle is closed")
	ErrMissingCredentials = errors.New("username and port are required")
)

// ConnectError wraps failures while opening the tunnel or the database.
type ConnectError struct {
	Stage string // "tunnel" or "database"
	Err   error
}

func (e *ConnectError) Error() string {
	return "failed to connect (" + e.Stage + "): " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error { return e.Err }
