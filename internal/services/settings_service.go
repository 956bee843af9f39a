package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

// Setting keys consumed by the pipeline and export engine.
const (
	SettingExportMaxLines        = "export_max_lines"
	SettingExportIntervalSeconds = "export_interval_seconds"
	SettingProxyCategoryDomains  = "proxy_category_domains"
	SettingProxyCategoryURLs     = "proxy_category_urls"
	SettingSOARURLEnabled        = "soar_url_enabled"
	SettingWhitelistFilterMode   = "whitelist_filter_mode"
	SettingNotificationURLs      = "notification_urls"
)

// Whitelist filter modes: what happens to an already-stored indicator when
// the filter finds it newly covered by the whitelist.
const (
	WhitelistFilterDelete     = "delete"
	WhitelistFilterDeactivate = "deactivate"
)

var settingDefaults = map[string]string{
	SettingExportMaxLines:        "100000",
	SettingExportIntervalSeconds: "300",
	SettingProxyCategoryDomains:  "blackweb_domains",
	SettingProxyCategoryURLs:     "blackweb_urls",
	SettingSOARURLEnabled:        "false",
	SettingWhitelistFilterMode:   WhitelistFilterDelete,
	SettingNotificationURLs:      "",
}

// SettingsService reads and writes the key/value settings table, falling
// back to compiled-in defaults for unknown or missing keys.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the stored value for key, or its default when unset.
func (s *SettingsService) Get(key string) string {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return settingDefaults[key]
		}
		return settingDefaults[key]
	}
	if setting.Value == "" {
		return settingDefaults[key]
	}
	return setting.Value
}

// Set upserts a setting value.
func (s *SettingsService) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Where(models.Setting{Key: key}).Assign(setting).FirstOrCreate(&setting).Error
}

func (s *SettingsService) getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Get(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// ExportMaxLines is the maximum number of lines per shard file.
func (s *SettingsService) ExportMaxLines() int {
	return s.getInt(SettingExportMaxLines, 100000)
}

// ExportInterval is the minimum time between export regenerations.
func (s *SettingsService) ExportInterval() time.Duration {
	return time.Duration(s.getInt(SettingExportIntervalSeconds, 300)) * time.Second
}

// ProxyDomainCategory names the proxy-format category for domains.
func (s *SettingsService) ProxyDomainCategory() string {
	return s.Get(SettingProxyCategoryDomains)
}

// ProxyURLCategory names the proxy-format category for urls.
func (s *SettingsService) ProxyURLCategory() string {
	return s.Get(SettingProxyCategoryURLs)
}

// SOARURLEnabled reports whether soar-url indicators participate in exports.
func (s *SettingsService) SOARURLEnabled() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s.Get(SettingSOARURLEnabled)))
	return err == nil && v
}

// WhitelistFilterMode returns delete (default) or deactivate.
func (s *SettingsService) WhitelistFilterMode() string {
	if s.Get(SettingWhitelistFilterMode) == WhitelistFilterDeactivate {
		return WhitelistFilterDeactivate
	}
	return WhitelistFilterDelete
}

// NotificationURLs returns the configured shoutrrr destinations.
func (s *SettingsService) NotificationURLs() []string {
	raw := s.Get(SettingNotificationURLs)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		if u := strings.TrimSpace(part); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
