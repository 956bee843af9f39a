package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhitelistEntry suppresses matching indicators from ingestion and storage.
// For ip entries the value may be a CIDR block; a domain entry also covers
// every subdomain of the value.
type WhitelistEntry struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        string        `gorm:"uniqueIndex" json:"uuid"`
	Value       string        `gorm:"not null" json:"value"`
	Kind        IndicatorKind `gorm:"index;not null" json:"kind"`
	Reason      string        `json:"reason,omitempty"`
	CreatedByID *uint         `json:"created_by_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (e *WhitelistEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return
}

// WhitelistBlock records one suppressed ingestion attempt. Insert-only.
type WhitelistBlock struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Value            string        `json:"value"`
	Kind             IndicatorKind `json:"kind"`
	SourceName       string        `json:"source_name"`
	DataSourceID     *uint         `json:"data_source_id,omitempty"`
	WhitelistEntryID uint          `gorm:"index" json:"whitelist_entry_id"`
	Reason           string        `json:"reason"`
	CreatedAt        time.Time     `gorm:"index" json:"created_at"`
}
