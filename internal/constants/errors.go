package constants

import (
	"net/http"

	"querydesk-api/pkg/dbmanager"
)

// Stable error codes surfaced to API clients
const (
	ErrCodeConnectionResolutionFailed = "CONNECTION_RESOLUTION_FAILED"
	ErrCodeExternalConnectFailed      = "EXTERNAL_CONNECT_FAILED"
	ErrCodeStatementUnclassifiable    = dbmanager.CodeStatementUnclassifiable
	ErrCodeStatementExecutionFailed   = dbmanager.CodeStatementExecutionFailed
	ErrCodeStatementAbnormal          = dbmanager.CodeStatementAbnormal
	ErrCodeHistorySaveFailed          = dbmanager.CodeHistorySaveFailed
	ErrCodeRenderFailed               = "RENDER_FAILED"
	ErrCodeQueryNotFound              = "QUERY_NOT_FOUND"
	ErrCodeServerNotFound             = "SERVER_NOT_FOUND"
	ErrCodeInvalidRequest             = "INVALID_REQUEST"
	ErrCodeInternal                   = "INTERNAL_ERROR"
)

var errorStatus = map[string]int{
	ErrCodeConnectionResolutionFailed: http.StatusNotFound,
	ErrCodeExternalConnectFailed:      http.StatusInternalServerError,
	ErrCodeStatementExecutionFailed:   http.StatusUnprocessableEntity,
	ErrCodeRenderFailed:               http.StatusInternalServerError,
	ErrCodeQueryNotFound:              http.StatusNotFound,
	ErrCodeServerNotFound:             http.StatusNotFound,
	ErrCodeInvalidRequest:             http.StatusBadRequest,
	ErrCodeInternal:                   http.StatusInternalServerError,
}

// StatusForCode maps a request-level error code to its HTTP status. Inside a
// batch the statement codes are reported inline instead.
func StatusForCode(code string) int {
	if status, ok := errorStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
