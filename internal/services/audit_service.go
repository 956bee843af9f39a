package services

import (
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/util"
	"github.com/sirupsen/logrus"
)

// Audit action tags. One event is emitted per occurrence, not per cycle.
const (
	ActionFetchSuccess    = "source.fetch.success"
	ActionFetchError      = "source.fetch.error"
	ActionWhitelistBlock  = "indicator.blocked"
	ActionIndicatorCreate = "indicator.create"
	ActionExportComplete  = "export.complete"
)

// AuditService persists structured audit events. Writes are best effort:
// a failed audit insert is logged and never fails the calling operation.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Emit records one audit event.
func (s *AuditService) Emit(severity models.AuditSeverity, action, details, sourceRef string) {
	entry := models.AuditLog{
		Severity:  severity,
		Action:    action,
		Details:   util.Truncate(util.SanitizeForLog(details), 2000),
		SourceRef: sourceRef,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.WithFields(logrus.Fields{"action": action}).WithError(err).Warn("failed to write audit event")
		return
	}
	logger.WithFields(logrus.Fields{
		"action":   action,
		"severity": severity,
		"source":   sourceRef,
	}).Debug(entry.Details)
}

// List returns the most recent audit events, newest first.
func (s *AuditService) List(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var events []models.AuditLog
	result := s.db.Order("created_at desc, id desc").Limit(limit).Find(&events)
	return events, result.Error
}
