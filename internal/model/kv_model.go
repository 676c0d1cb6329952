package model

import (
	"time"

	"gorm.io/datatypes"
)

// KeyValue backs the postgres Store implementation. Values are always JSON
// (the document is stored as a JSON string, the card list as a JSON array).
type KeyValue struct {
	Key       string         `gorm:"primaryKey;type:varchar(255)"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (KeyValue) TableName() string {
	return "deck_kv"
}
