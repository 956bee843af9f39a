package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataSourceStatus reflects the outcome of the most recent fetch attempt.
type DataSourceStatus string

const (
	SourceStatusPending    DataSourceStatus = "pending"
	SourceStatusProcessing DataSourceStatus = "processing"
	SourceStatusSuccess    DataSourceStatus = "success"
	SourceStatusError      DataSourceStatus = "error"
)

// DataSource is a remote indicator feed polled on its own interval.
type DataSource struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	UUID string `gorm:"uniqueIndex" json:"uuid"`
	Name string `gorm:"not null" json:"name"`
	URL  string `gorm:"not null" json:"url"`
	// Kinds is a comma-separated list of indicator kinds this feed yields.
	Kinds                string           `json:"kinds"`
	FetchIntervalSeconds int              `gorm:"default:3600" json:"fetch_interval_seconds"`
	Active               bool             `json:"active"`
	Paused               bool             `json:"paused"`
	LastFetchAt          *time.Time       `json:"last_fetch_at,omitempty"`
	Status               DataSourceStatus `gorm:"default:pending" json:"status"`
	LastError            string           `json:"last_error,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (s *DataSource) BeforeCreate(tx *gorm.DB) (err error) {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = SourceStatusPending
	}
	return
}

// KindList parses the configured kinds, dropping anything a feed cannot yield.
func (s *DataSource) KindList() []IndicatorKind {
	var kinds []IndicatorKind
	for _, part := range strings.Split(s.Kinds, ",") {
		k := IndicatorKind(strings.TrimSpace(part))
		for _, known := range FeedKinds {
			if k == known {
				kinds = append(kinds, k)
				break
			}
		}
	}
	return kinds
}

// Due reports whether enough time has elapsed since the last fetch.
// A source that has never been fetched is always due.
func (s *DataSource) Due(now time.Time) bool {
	if s.LastFetchAt == nil {
		return true
	}
	return now.Sub(*s.LastFetchAt) >= time.Duration(s.FetchIntervalSeconds)*time.Second
}
