package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/metrics"
	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/version"
)

const (
	fetchTimeout    = 90 * time.Second
	upsertBatchSize = 50
	// batchPause bounds write pressure on storage between upsert batches.
	batchPause   = 100 * time.Millisecond
	maxBodyBytes = 64 << 20
)

// extractPatterns pull candidate values out of raw feed text, one pattern
// per kind. Unlike the classifier, extraction only recognizes the four
// common hash digest lengths; rarer digests reach the system through the
// manual entry path. The hash alternation is ordered longest first so a
// sha512 token is not consumed as two md5-length halves.
var extractPatterns = map[models.IndicatorKind]*regexp.Regexp{
	models.KindIP:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
	models.KindDomain: regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`),
	models.KindHash:   regexp.MustCompile(`\b(?:[0-9a-fA-F]{128}|[0-9a-fA-F]{64}|[0-9a-fA-F]{40}|[0-9a-fA-F]{32})\b`),
	models.KindURL:    regexp.MustCompile(`https?://[^\s"'<>]+`),
}

// ExtractCandidates returns the deduplicated candidate values of one kind
// found in a feed body, in order of first appearance. Hash and domain
// candidates are lowercased so case variants collapse to one candidate.
func ExtractCandidates(body string, kind models.IndicatorKind) []string {
	pattern, ok := extractPatterns[kind]
	if !ok {
		return nil
	}
	raw := pattern.FindAllString(body, -1)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if kind == models.KindHash || kind == models.KindDomain {
			v = strings.ToLower(v)
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type ingestStats struct {
	fetched int
	valid   int
	blocked int
	saved   int
}

// IngestService runs the fetch-parse-filter-upsert pipeline for one source
// at a time per source id; unrelated sources ingest concurrently.
type IngestService struct {
	db        *gorm.DB
	whitelist *WhitelistService
	settings  *SettingsService
	audit     *AuditService
	notify    *NotificationService
	client    *http.Client

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

func NewIngestService(db *gorm.DB, whitelist *WhitelistService, settings *SettingsService, audit *AuditService, notify *NotificationService) *IngestService {
	return &IngestService{
		db:        db,
		whitelist: whitelist,
		settings:  settings,
		audit:     audit,
		notify:    notify,
		client:    &http.Client{Timeout: fetchTimeout},
		inFlight:  make(map[uint]struct{}),
	}
}

// tryAcquire marks the source in flight. It returns false when an ingestion
// for the same source is already running.
func (s *IngestService) tryAcquire(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *IngestService) release(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// Ingest fetches, parses, filters and upserts one source's feed. A second
// call for the same source while one is in flight is a silent no-op. Errors
// are recorded on the source and audited, never returned.
func (s *IngestService) Ingest(ctx context.Context, source *models.DataSource) {
	if !s.tryAcquire(source.ID) {
		logger.WithSource(source.Name, source.ID).Debug("ingestion already in flight, skipping")
		return
	}
	defer s.release(source.ID)

	log := logger.WithSource(source.Name, source.ID)
	prevStatus := source.Status
	s.setStatus(source, models.SourceStatusProcessing, "")

	body, err := s.fetch(ctx, source.URL)
	if err != nil {
		msg := classifyFetchError(err)
		s.recordFailure(source, prevStatus, msg)
		return
	}
	metrics.IncFetchSuccess()

	stats, err := s.processBody(source, body)
	if err != nil {
		s.recordFailure(source, prevStatus, err.Error())
		return
	}

	now := time.Now()
	source.Status = models.SourceStatusSuccess
	source.LastError = ""
	source.LastFetchAt = &now
	if err := s.db.Save(source).Error; err != nil {
		log.WithError(err).Error("failed to persist source status")
	}

	summary := fmt.Sprintf("source %s: %d fetched, %d valid, %d blocked, %d saved",
		source.Name, stats.fetched, stats.valid, stats.blocked, stats.saved)
	s.audit.Emit(models.AuditInfo, ActionFetchSuccess, summary, source.UUID)
	log.WithFields(map[string]interface{}{
		"fetched": stats.fetched,
		"valid":   stats.valid,
		"blocked": stats.blocked,
		"saved":   stats.saved,
	}).Info("ingestion complete")

	if prevStatus == models.SourceStatusError {
		s.notify.Notify(models.NotificationTypeSuccess,
			fmt.Sprintf("Source %s recovered", source.Name), summary)
	}
}

func (s *IngestService) setStatus(source *models.DataSource, status models.DataSourceStatus, lastError string) {
	source.Status = status
	source.LastError = lastError
	if err := s.db.Save(source).Error; err != nil {
		logger.WithSource(source.Name, source.ID).WithError(err).Error("failed to persist source status")
	}
}

func (s *IngestService) recordFailure(source *models.DataSource, prevStatus models.DataSourceStatus, msg string) {
	now := time.Now()
	source.Status = models.SourceStatusError
	source.LastError = msg
	source.LastFetchAt = &now
	if err := s.db.Save(source).Error; err != nil {
		logger.WithSource(source.Name, source.ID).WithError(err).Error("failed to persist source status")
	}
	metrics.IncFetchFailure()
	s.audit.Emit(models.AuditError, ActionFetchError,
		fmt.Sprintf("source %s: %s", source.Name, msg), source.UUID)
	logger.WithSource(source.Name, source.ID).Warn(msg)

	if prevStatus != models.SourceStatusError {
		s.notify.Notify(models.NotificationTypeError,
			fmt.Sprintf("Source %s failed", source.Name), msg)
	}
}

func (s *IngestService) fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("blackfeed-fetcher/%s", version.Version))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// classifyFetchError maps transport failures to the operator-facing message
// stored on the source.
func classifyFetchError(err error) string {
	var netErr net.Error
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "fetch timed out"
	case errors.As(err, &dnsErr):
		return fmt.Sprintf("dns lookup failed for %s", dnsErr.Name)
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	default:
		return err.Error()
	}
}

// processBody extracts, classifies, filters and persists candidates for
// every kind configured on the source.
func (s *IngestService) processBody(source *models.DataSource, body string) (ingestStats, error) {
	var stats ingestStats
	mode := s.settings.WhitelistFilterMode()

	for _, kind := range source.KindList() {
		candidates := ExtractCandidates(body, kind)
		stats.fetched += len(candidates)

		// Feeds routinely contain noise; candidates the classifier rejects
		// are skipped silently rather than surfaced as errors.
		valid := make([]models.Indicator, 0, len(candidates))
		values := make([]string, 0, len(candidates))
		for _, raw := range candidates {
			cls, err := Classify(raw)
			if err != nil || cls.Kind != kind {
				continue
			}
			valid = append(valid, models.Indicator{
				Value:         raw,
				Kind:          kind,
				HashAlgorithm: cls.HashAlgorithm,
				Origin:        source.Name,
				DataSourceID:  &source.ID,
				Active:        true,
			})
			values = append(values, raw)
		}
		stats.valid += len(valid)

		matched, err := s.whitelist.BulkCheck(values, kind)
		if err != nil {
			return stats, fmt.Errorf("whitelist check for %s: %w", kind, err)
		}

		survivors := valid[:0]
		for _, ind := range valid {
			entry, blocked := matched[ind.Value]
			if !blocked {
				survivors = append(survivors, ind)
				continue
			}
			stats.blocked++
			s.whitelist.RecordBlock(ind.Value, kind, source.Name, &source.ID, entry)
			s.suppressStored(ind.Value, kind, mode)
		}

		stats.saved += s.upsertBatches(source, survivors)
	}
	return stats, nil
}

// suppressStored applies the configured filter mode to a stored indicator
// that has become whitelisted since it was ingested.
func (s *IngestService) suppressStored(value string, kind models.IndicatorKind, mode string) {
	var err error
	if mode == WhitelistFilterDeactivate {
		err = s.db.Model(&models.Indicator{}).
			Where("value = ? AND kind = ?", value, kind).
			Updates(map[string]interface{}{"active": false, "temp_active_until": nil}).Error
	} else {
		err = s.db.Where("value = ? AND kind = ?", value, kind).
			Delete(&models.Indicator{}).Error
	}
	if err != nil {
		logger.Log().WithError(err).Warn("failed to suppress stored indicator")
	}
}

// upsertBatches persists survivors in bounded batches. The (value, kind)
// conflict clause refreshes origin attribution only; activation state and
// creation timestamps of existing rows are never touched. A failed batch is
// logged and skipped, later batches still run.
func (s *IngestService) upsertBatches(source *models.DataSource, indicators []models.Indicator) int {
	saved := 0
	for start := 0; start < len(indicators); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(indicators) {
			end = len(indicators)
		}
		batch := indicators[start:end]

		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "value"}, {Name: "kind"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"origin":         source.Name,
				"data_source_id": source.ID,
			}),
		}).Create(&batch).Error
		if err != nil {
			logger.WithSource(source.Name, source.ID).WithError(err).
				Warnf("upsert batch %d-%d failed, skipping", start, end)
			continue
		}
		saved += len(batch)

		if end < len(indicators) {
			time.Sleep(batchPause)
		}
	}
	metrics.AddIndicatorsSaved(saved)
	return saved
}
