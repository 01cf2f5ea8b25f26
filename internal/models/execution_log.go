package models

// ExecutionLogOutcome mirrors one batch outcome in the audit log.
type ExecutionLogOutcome struct {
	Name     string `bson:"name" json:"name"`
	Action   string `bson:"action" json:"action"`
	Affected *int64 `bson:"affected,omitempty" json:"affected,omitempty"`
	Ordinal  int    `bson:"ordinal,omitempty" json:"ordinal,omitempty"`
	Code     string `bson:"code,omitempty" json:"code,omitempty"`
	Message  string `bson:"message,omitempty" json:"message,omitempty"`
}

// ExecutionLog is the audit record of one executed batch.
type ExecutionLog struct {
	BatchID    string                `bson:"batch_id" json:"batch_id"`
	DatabaseID uint                  `bson:"database_id" json:"database_id"`
	Actor      string                `bson:"actor" json:"actor"`
	Statements []string              `bson:"statements" json:"statements"`
	Outcomes   []ExecutionLogOutcome `bson:"outcomes" json:"outcomes"`
	QueryID    *uint                 `bson:"query_id,omitempty" json:"query_id,omitempty"`
	Failed     int                   `bson:"failed" json:"failed"`
	DurationMs int64                 `bson:"duration_ms" json:"duration_ms"`

	DocumentBase `bson:",inline"`
}

func NewExecutionLog(batchID string, databaseID uint, actor string) *ExecutionLog {
	return &ExecutionLog{
		BatchID:      batchID,
		DatabaseID:   databaseID,
		Actor:        actor,
		DocumentBase: NewDocumentBase(),
	}
}
