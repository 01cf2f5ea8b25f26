package dtos

import (
	"encoding/json"

	"querydesk-api/pkg/dbmanager"
)

type ExecuteRequest struct {
	SQL string `json:"sql" binding:"required"`
}

// ExecuteResponse is the report of one batch. When the batch produced only
// the probe record it marshals as that record alone.
type ExecuteResponse struct {
	BatchID  string                 `json:"-"`
	Query    *dbmanager.ProbeRecord `json:"query,omitempty"`
	Outcomes []dbmanager.Outcome    `json:"outcomes"`
}

func (r ExecuteResponse) MarshalJSON() ([]byte, error) {
	if r.Query != nil && len(r.Outcomes) == 0 {
		return json.Marshal(r.Query)
	}
	type plain ExecuteResponse
	p := plain(r)
	if p.Outcomes == nil {
		p.Outcomes = []dbmanager.Outcome{}
	}
	return json.Marshal(p)
}

type PageRowsResponse struct {
	QueryID uint               `json:"query_id"`
	Page    int                `json:"page"`
	Size    int                `json:"size"`
	Columns []dbmanager.Column `json:"columns"`
	Rows    json.RawMessage    `json:"rows"`
}

// ExportRequest selects the format and renderer options of an export. Without
// a page the whole result is exported.
type ExportRequest struct {
	Format       string `json:"format" binding:"required"`
	Page         int    `json:"page" binding:"omitempty,min=1"`
	Size         int    `json:"size" binding:"omitempty,min=1"`
	Table        string `json:"table"`
	BatchSize    int    `json:"batch_size" binding:"omitempty,min=1"`
	KeyColumns   int    `json:"key_columns" binding:"omitempty,min=1"`
	GroupColumns int    `json:"group_columns" binding:"omitempty,min=0"`
	Multiline    bool   `json:"multiline"`
	SheetName    string `json:"sheet_name"`
}

type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

type SplitRequest struct {
	SQL string `json:"sql" binding:"required"`
}

type SplitStatement struct {
	Ordinal     int    `json:"ordinal"`
	Text        string `json:"text"`
	CommentOnly bool   `json:"comment_only"`
	Verb        string `json:"verb"`
	Name        string `json:"name,omitempty"`
	Action      string `json:"action,omitempty"`
}
