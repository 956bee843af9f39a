package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

var (
	ErrDuplicateIndicator   = errors.New("indicator already exists")
	ErrIndicatorWhitelisted = errors.New("value is covered by the whitelist")
	ErrIndicatorNotFound    = errors.New("indicator not found")
)

// OriginManual labels indicators entered by an operator rather than a feed.
const OriginManual = "manual"

// IndicatorService handles manually entered indicators and activation state.
// Feed-sourced indicators go through IngestService instead.
type IndicatorService struct {
	db        *gorm.DB
	whitelist *WhitelistService
	audit     *AuditService
}

func NewIndicatorService(db *gorm.DB, whitelist *WhitelistService, audit *AuditService) *IndicatorService {
	return &IndicatorService{db: db, whitelist: whitelist, audit: audit}
}

// CreateManual classifies and stores a single raw value. Duplicates are
// rejected, not merged: case-insensitively for hash and domain kinds,
// case-sensitively otherwise.
func (s *IndicatorService) CreateManual(raw string, createdBy *uint) (*models.Indicator, error) {
	cls, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	value := strings.TrimSpace(raw)

	query := s.db.Model(&models.Indicator{}).Where("kind = ?", cls.Kind)
	if cls.Kind == models.KindHash || cls.Kind == models.KindDomain {
		query = query.Where("LOWER(value) = LOWER(?)", value)
	} else {
		query = query.Where("value = ?", value)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateIndicator
	}

	entry, err := s.whitelist.Find(value, cls.Kind)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return nil, fmt.Errorf("%w: entry %q", ErrIndicatorWhitelisted, entry.Value)
	}

	indicator := &models.Indicator{
		Value:         value,
		Kind:          cls.Kind,
		HashAlgorithm: cls.HashAlgorithm,
		Origin:        OriginManual,
		Active:        true,
		CreatedByID:   createdBy,
	}
	if err := s.db.Create(indicator).Error; err != nil {
		return nil, err
	}
	s.audit.Emit(models.AuditInfo, ActionIndicatorCreate,
		fmt.Sprintf("manually added %s %q", cls.Kind, value), OriginManual)
	return indicator, nil
}

// ActivateTemporarily marks an indicator active until the given expiry.
func (s *IndicatorService) ActivateTemporarily(id uint, until time.Time) error {
	result := s.db.Model(&models.Indicator{}).Where("id = ?", id).
		Updates(map[string]interface{}{"active": true, "temp_active_until": until})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

// Deactivate clears the active flag and any temporary activation.
func (s *IndicatorService) Deactivate(id uint) error {
	result := s.db.Model(&models.Indicator{}).Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "temp_active_until": nil})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

// PurgeExpiredTempActivations removes the borrowed-active state from every
// indicator whose temporary activation has elapsed.
func (s *IndicatorService) PurgeExpiredTempActivations() (int64, error) {
	result := s.db.Model(&models.Indicator{}).
		Where("temp_active_until IS NOT NULL AND temp_active_until <= ?", time.Now()).
		Updates(map[string]interface{}{"active": false, "temp_active_until": nil})
	return result.RowsAffected, result.Error
}

// List returns indicators filtered by kind and active state.
func (s *IndicatorService) List(kind models.IndicatorKind, activeOnly bool, limit int) ([]models.Indicator, error) {
	if limit <= 0 || limit > 10000 {
		limit = 500
	}
	query := s.db.Order("id desc").Limit(limit)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var indicators []models.Indicator
	result := query.Find(&indicators)
	return indicators, result.Error
}
