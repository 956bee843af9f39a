package services

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/metrics"
	"github.com/Wikid82/blackfeed/backend/internal/models"
)

var (
	ErrWhitelistEntryNotFound = errors.New("whitelist entry not found")
	ErrWhitelistKindMismatch  = errors.New("value does not classify as the given kind")
)

// WhitelistService decides containment of candidate indicators against the
// allow-list and records suppressed ingestion attempts.
type WhitelistService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewWhitelistService(db *gorm.DB, audit *AuditService) *WhitelistService {
	return &WhitelistService{db: db, audit: audit}
}

// MatchEntry returns the first entry covering value, or nil. Exact equality
// matches for every kind; ip entries additionally match by CIDR containment
// and domain entries by proper-subdomain suffix. Entry order is the stored
// order, so the first created covering entry wins.
func MatchEntry(value string, kind models.IndicatorKind, entries []models.WhitelistEntry) *models.WhitelistEntry {
	for i := range entries {
		e := &entries[i]
		if e.Value == value {
			return e
		}
		switch kind {
		case models.KindIP:
			if _, ipnet, err := net.ParseCIDR(e.Value); err == nil {
				if ip := net.ParseIP(value); ip != nil && ipnet.Contains(ip) {
					return e
				}
			}
		case models.KindDomain:
			if strings.HasSuffix(value, "."+e.Value) {
				return e
			}
		}
	}
	return nil
}

func (s *WhitelistService) entriesFor(kind models.IndicatorKind) ([]models.WhitelistEntry, error) {
	var entries []models.WhitelistEntry
	if err := s.db.Where("kind = ?", kind).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load whitelist entries: %w", err)
	}
	return entries, nil
}

// IsWhitelisted reports whether value is covered by any entry of its kind.
func (s *WhitelistService) IsWhitelisted(value string, kind models.IndicatorKind) (bool, error) {
	entry, err := s.Find(value, kind)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Find returns the covering entry for value, or nil when none matches.
func (s *WhitelistService) Find(value string, kind models.IndicatorKind) (*models.WhitelistEntry, error) {
	entries, err := s.entriesFor(kind)
	if err != nil {
		return nil, err
	}
	return MatchEntry(value, kind, entries), nil
}

// BulkCheck maps each covered value to its matching entry in one round trip.
// Results are identical to calling Find per value.
func (s *WhitelistService) BulkCheck(values []string, kind models.IndicatorKind) (map[string]*models.WhitelistEntry, error) {
	matched := make(map[string]*models.WhitelistEntry)
	if len(values) == 0 {
		return matched, nil
	}
	entries, err := s.entriesFor(kind)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if e := MatchEntry(v, kind, entries); e != nil {
			matched[v] = e
		}
	}
	return matched, nil
}

// RecordBlock persists one WhitelistBlock for a suppressed candidate and
// emits the matching audit event.
func (s *WhitelistService) RecordBlock(value string, kind models.IndicatorKind, sourceName string, sourceID *uint, entry *models.WhitelistEntry) {
	reason := fmt.Sprintf("matched whitelist entry %q", entry.Value)
	block := models.WhitelistBlock{
		Value:            value,
		Kind:             kind,
		SourceName:       sourceName,
		DataSourceID:     sourceID,
		WhitelistEntryID: entry.ID,
		Reason:           reason,
	}
	if err := s.db.Create(&block).Error; err != nil {
		// A lost block record must not interrupt ingestion.
		s.audit.Emit(models.AuditWarning, ActionWhitelistBlock,
			fmt.Sprintf("failed to record block for %s %q: %v", kind, value, err), sourceName)
		return
	}
	metrics.IncIndicatorBlocked()
	s.audit.Emit(models.AuditInfo, ActionWhitelistBlock,
		fmt.Sprintf("suppressed %s %q from %s: %s", kind, value, sourceName, reason), sourceName)
}

// Create validates and stores a new allow-list entry.
func (s *WhitelistService) Create(entry *models.WhitelistEntry) error {
	cls, err := ClassifyWhitelistValue(entry.Value)
	if err != nil {
		return err
	}
	if entry.Kind == "" {
		entry.Kind = cls.Kind
	} else if entry.Kind != cls.Kind {
		return ErrWhitelistKindMismatch
	}
	entry.Value = strings.TrimSpace(entry.Value)
	return s.db.Create(entry).Error
}

// List returns all allow-list entries, oldest first.
func (s *WhitelistService) List() ([]models.WhitelistEntry, error) {
	var entries []models.WhitelistEntry
	result := s.db.Order("id asc").Find(&entries)
	return entries, result.Error
}

// Delete removes an entry by id.
func (s *WhitelistService) Delete(id uint) error {
	result := s.db.Delete(&models.WhitelistEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWhitelistEntryNotFound
	}
	return nil
}

// ListBlocks returns recent suppression records, newest first.
func (s *WhitelistService) ListBlocks(limit int) ([]models.WhitelistBlock, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var blocks []models.WhitelistBlock
	result := s.db.Order("created_at desc, id desc").Limit(limit).Find(&blocks)
	return blocks, result.Error
}
