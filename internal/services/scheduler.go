package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/models"
)

// Scheduler is the single periodic driver. It fires three independent
// cadences: a per-minute source-due check, a ten-second export-due check
// (regeneration itself throttled by the export interval setting) and a
// per-minute purge of expired temporary activations. Cron runs every
// triggered job in its own goroutine, so a slow ingestion never delays the
// due-check for other sources or the export cycle.
type Scheduler struct {
	db         *gorm.DB
	ingest     *IngestService
	export     *ExportService
	indicators *IndicatorService
	settings   *SettingsService
	cron       *cron.Cron

	mu         sync.Mutex
	lastExport time.Time
}

func NewScheduler(db *gorm.DB, ingest *IngestService, export *ExportService, indicators *IndicatorService, settings *SettingsService) *Scheduler {
	return &Scheduler{
		db:         db,
		ingest:     ingest,
		export:     export,
		indicators: indicators,
		settings:   settings,
	}
}

// Start registers the cadences and begins ticking.
func (s *Scheduler) Start() error {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", s.checkSources); err != nil {
		return err
	}
	if _, err := c.AddFunc("@every 10s", s.checkExport); err != nil {
		return err
	}
	if _, err := c.AddFunc("@every 1m", s.purgeTempActivations); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	logger.Log().Info("scheduler started")
	return nil
}

// Stop halts the ticker. Ingestions already dispatched keep running.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// checkSources dispatches Ingest for every active, unpaused source whose
// interval has elapsed, without waiting for completion.
func (s *Scheduler) checkSources() {
	var sources []models.DataSource
	if err := s.db.Where("active = ? AND paused = ?", true, false).Find(&sources).Error; err != nil {
		logger.Log().WithError(err).Error("failed to load data sources")
		return
	}

	now := time.Now()
	for i := range sources {
		src := sources[i]
		if !src.Due(now) {
			continue
		}
		go s.ingest.Ingest(context.Background(), &src)
	}
}

// checkExport regenerates the distribution files when the configured
// interval has elapsed since the previous run.
func (s *Scheduler) checkExport() {
	interval := s.settings.ExportInterval()

	s.mu.Lock()
	due := time.Since(s.lastExport) >= interval
	s.mu.Unlock()
	if !due {
		return
	}

	s.export.Regenerate()

	s.mu.Lock()
	s.lastExport = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) purgeTempActivations() {
	purged, err := s.indicators.PurgeExpiredTempActivations()
	if err != nil {
		logger.Log().WithError(err).Error("failed to purge expired temporary activations")
		return
	}
	if purged > 0 {
		logger.WithFields(map[string]interface{}{"count": purged}).
			Info("purged expired temporary activations")
	}
}
