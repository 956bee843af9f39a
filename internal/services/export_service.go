package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/metrics"
	"github.com/Wikid82/blackfeed/backend/internal/models"
)

const proxyFileName = "proxy_categories.txt"

type exportLayout struct {
	Dir    string
	Prefix string
}

// exportLayouts names the per-kind output directory and shard file prefix.
var exportLayouts = map[models.IndicatorKind]exportLayout{
	models.KindIP:     {Dir: "IP", Prefix: "BlackIP"},
	models.KindDomain: {Dir: "Domain", Prefix: "BlackDomain"},
	models.KindHash:   {Dir: "Hash", Prefix: "BlackHash"},
	models.KindURL:    {Dir: "URL", Prefix: "BlackURL"},
}

// ExportService renders active indicators into bounded shard files plus a
// proxy-category file under its base directory. It owns those files
// exclusively: every cycle clears a kind's old shards before writing new
// ones.
type ExportService struct {
	db       *gorm.DB
	settings *SettingsService
	audit    *AuditService
	baseDir  string
}

func NewExportService(db *gorm.DB, settings *SettingsService, audit *AuditService, baseDir string) *ExportService {
	return &ExportService{db: db, settings: settings, audit: audit, baseDir: baseDir}
}

// Regenerate rewrites the distribution files for every kind. A failure in
// one kind is logged and leaves that kind's directory stale or empty until
// the next cycle; the remaining kinds still regenerate.
func (s *ExportService) Regenerate() {
	maxLines := s.settings.ExportMaxLines()

	for _, kind := range models.FeedKinds {
		if err := s.exportKind(kind, maxLines); err != nil {
			logger.WithFields(map[string]interface{}{"kind": kind}).
				WithError(err).Error("shard export failed, keeping previous files until next cycle")
		}
	}

	if err := s.exportProxyCategories(); err != nil {
		logger.Log().WithError(err).Error("proxy category export failed")
	}

	metrics.IncExportCycle()
	s.audit.Emit(models.AuditInfo, ActionExportComplete, "distribution files regenerated", "")
}

func (s *ExportService) activeValues(kind models.IndicatorKind) ([]string, error) {
	var values []string
	err := s.db.Model(&models.Indicator{}).
		Where("kind = ? AND active = ?", kind, true).
		Order("value asc").
		Pluck("value", &values).Error
	if err != nil {
		return nil, fmt.Errorf("load active %s indicators: %w", kind, err)
	}
	return values, nil
}

func (s *ExportService) exportKind(kind models.IndicatorKind, maxLines int) error {
	layout := exportLayouts[kind]

	values, err := s.activeValues(kind)
	if err != nil {
		return err
	}
	if kind == models.KindDomain {
		values = expandDomains(values)
	}

	dir := filepath.Join(s.baseDir, layout.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure %s directory: %w", layout.Dir, err)
	}
	if err := clearShards(dir, layout.Prefix); err != nil {
		return err
	}

	for shard, start := 0, 0; start < len(values); shard++ {
		end := start + maxLines
		if end > len(values) {
			end = len(values)
		}
		name := fmt.Sprintf("%s%d.txt", layout.Prefix, shard)

		var b strings.Builder
		for _, v := range values[start:end] {
			b.WriteString(v)
			b.WriteByte('\n')
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write shard %s: %w", name, err)
		}
		metrics.IncExportFile()
		start = end
	}
	return nil
}

// expandDomains doubles every domain into its bare and wildcard forms so
// downstream consumers match subdomains as well.
func expandDomains(domains []string) []string {
	out := make([]string, 0, len(domains)*2)
	for _, d := range domains {
		out = append(out, d, "*."+d)
	}
	return out
}

func clearShards(dir, prefix string) error {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.txt"))
	if err != nil {
		return fmt.Errorf("list old shards: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old shard %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// exportProxyCategories writes the single proxy-format file: one named
// category block for domains and one for urls (merged with soar-url when
// that kind is enabled). An empty category is omitted; when both are empty
// no file is written at all.
func (s *ExportService) exportProxyCategories() error {
	domains, err := s.activeValues(models.KindDomain)
	if err != nil {
		return err
	}
	urls, err := s.activeValues(models.KindURL)
	if err != nil {
		return err
	}
	if s.settings.SOARURLEnabled() {
		soar, err := s.activeValues(models.KindSOARURL)
		if err != nil {
			return err
		}
		urls = append(urls, soar...)
	}

	dir := filepath.Join(s.baseDir, "Proxy")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure Proxy directory: %w", err)
	}
	path := filepath.Join(dir, proxyFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old proxy file: %w", err)
	}

	var b strings.Builder
	writeProxyCategory(&b, s.settings.ProxyDomainCategory(), domains)
	writeProxyCategory(&b, s.settings.ProxyURLCategory(), urls)
	if b.Len() == 0 {
		return nil
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write proxy file: %w", err)
	}
	metrics.IncExportFile()
	return nil
}

func writeProxyCategory(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "define category %s\n", name)
	for _, v := range values {
		fmt.Fprintf(b, "%q\n", v)
	}
	b.WriteString("end\n")
}
