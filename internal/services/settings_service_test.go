package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	assert.Equal(t, 100000, svc.ExportMaxLines())
	assert.Equal(t, 300*time.Second, svc.ExportInterval())
	assert.Equal(t, "blackweb_domains", svc.ProxyDomainCategory())
	assert.Equal(t, "blackweb_urls", svc.ProxyURLCategory())
	assert.False(t, svc.SOARURLEnabled())
	assert.Equal(t, WhitelistFilterDelete, svc.WhitelistFilterMode())
	assert.Nil(t, svc.NotificationURLs())
}

func TestSettingsOverrides(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	require.NoError(t, svc.Set(SettingExportMaxLines, "5000"))
	require.NoError(t, svc.Set(SettingExportIntervalSeconds, "60"))
	require.NoError(t, svc.Set(SettingSOARURLEnabled, "true"))
	require.NoError(t, svc.Set(SettingWhitelistFilterMode, WhitelistFilterDeactivate))
	require.NoError(t, svc.Set(SettingNotificationURLs, "discord://t@c, slack://x"))

	assert.Equal(t, 5000, svc.ExportMaxLines())
	assert.Equal(t, time.Minute, svc.ExportInterval())
	assert.True(t, svc.SOARURLEnabled())
	assert.Equal(t, WhitelistFilterDeactivate, svc.WhitelistFilterMode())
	assert.Equal(t, []string{"discord://t@c", "slack://x"}, svc.NotificationURLs())
}

func TestSettingsSetIsUpsert(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	require.NoError(t, svc.Set(SettingExportMaxLines, "10"))
	require.NoError(t, svc.Set(SettingExportMaxLines, "20"))
	assert.Equal(t, 20, svc.ExportMaxLines())
}

func TestSettingsInvalidValuesFallBack(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	require.NoError(t, svc.Set(SettingExportMaxLines, "not-a-number"))
	assert.Equal(t, 100000, svc.ExportMaxLines())

	require.NoError(t, svc.Set(SettingExportMaxLines, "-4"))
	assert.Equal(t, 100000, svc.ExportMaxLines())

	require.NoError(t, svc.Set(SettingWhitelistFilterMode, "purge"))
	assert.Equal(t, WhitelistFilterDelete, svc.WhitelistFilterMode())
}
