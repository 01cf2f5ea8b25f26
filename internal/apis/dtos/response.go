package dtos

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Code    *string     `json:"code,omitempty"`
}

// QueryError is a request-level failure with a stable code. Details carries
// advisory driver text and is not part of the contract.
type QueryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *QueryError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func NewQueryError(code, message string, cause error) *QueryError {
	qe := &QueryError{Code: code, Message: message}
	if cause != nil {
		qe.Details = cause.Error()
	}
	return qe
}
