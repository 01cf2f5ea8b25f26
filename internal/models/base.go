package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base is embedded by every gorm model of the registry.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Audit records the principals that created and last changed a row.
type Audit struct {
	CreatedBy string `gorm:"size:128" json:"created_by"`
	UpdatedBy string `gorm:"size:128" json:"updated_by"`
}

// DocumentBase is embedded by mongo documents.
type DocumentBase struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func NewDocumentBase() DocumentBase {
	return DocumentBase{
		ID:        primitive.NewObjectID(),
		CreatedAt: time.Now(),
	}
}
