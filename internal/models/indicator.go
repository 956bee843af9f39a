package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IndicatorKind is the category of a threat indicator.
type IndicatorKind string

const (
	KindIP      IndicatorKind = "ip"
	KindDomain  IndicatorKind = "domain"
	KindHash    IndicatorKind = "hash"
	KindURL     IndicatorKind = "url"
	KindSOARURL IndicatorKind = "soar-url"
)

// FeedKinds are the kinds a remote feed can be configured to yield.
// soar-url indicators only enter the system through the SOAR entry point.
var FeedKinds = []IndicatorKind{KindIP, KindDomain, KindHash, KindURL}

// Indicator is a single tracked threat artifact. The pair (value, kind)
// is unique; a repeated observation refreshes origin attribution only.
type Indicator struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UUID            string        `gorm:"uniqueIndex" json:"uuid"`
	Value           string        `gorm:"uniqueIndex:idx_indicators_value_kind;not null" json:"value"`
	Kind            IndicatorKind `gorm:"uniqueIndex:idx_indicators_value_kind;not null" json:"kind"`
	HashAlgorithm   string        `json:"hash_algorithm,omitempty"`
	Origin          string        `json:"origin"`
	DataSourceID    *uint         `gorm:"index" json:"data_source_id,omitempty"`
	Active          bool          `gorm:"index" json:"active"`
	TempActiveUntil *time.Time    `json:"temp_active_until,omitempty"`
	CreatedByID     *uint         `json:"created_by_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (i *Indicator) BeforeCreate(tx *gorm.DB) (err error) {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return
}
