package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditSeverity grades an audit event.
type AuditSeverity string

const (
	AuditInfo    AuditSeverity = "info"
	AuditWarning AuditSeverity = "warning"
	AuditError   AuditSeverity = "error"
)

// AuditLog records one pipeline occurrence: a suppressed candidate, a fetch
// outcome, a manual insertion, an export cycle.
type AuditLog struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UUID      string        `gorm:"uniqueIndex" json:"uuid"`
	Severity  AuditSeverity `gorm:"index" json:"severity"`
	Action    string        `gorm:"index" json:"action"`
	Details   string        `gorm:"type:text" json:"details"`
	SourceRef string        `json:"source_ref,omitempty"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return
}
