package model

import (
	"time"

	"gorm.io/datatypes"
)

// Preference is one persisted client-state entry, e.g. the visible subtypes of a map.
type Preference struct {
	Key       string         `gorm:"primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name across drivers.
func (Preference) TableName() string {
	return "preferences"
}
