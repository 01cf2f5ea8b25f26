package models

import "time"

// QueryHistory stores the first read statement of a batch so that it can be
// paged and exported later without resubmitting the SQL.
type QueryHistory struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	DatabaseID uint              `gorm:"index;not null" json:"database_id"`
	Database   *ExternalDatabase `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Statement  string            `gorm:"type:text;not null" json:"statement"`
	CreatedBy  string            `gorm:"size:128" json:"created_by"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (QueryHistory) TableName() string {
	return "query_histories"
}
