package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.DataSource{},
		&models.Indicator{},
		&models.WhitelistEntry{},
		&models.WhitelistBlock{},
		&models.Setting{},
		&models.AuditLog{},
		&models.Notification{},
	)
	require.NoError(t, err)

	return db
}

// testStack bundles the service graph most pipeline tests need.
type testStack struct {
	db        *gorm.DB
	settings  *SettingsService
	audit     *AuditService
	notify    *NotificationService
	whitelist *WhitelistService
	ingest    *IngestService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := setupTestDB(t)
	settings := NewSettingsService(db)
	audit := NewAuditService(db)
	notify := NewNotificationService(db, settings)
	whitelist := NewWhitelistService(db, audit)
	ingest := NewIngestService(db, whitelist, settings, audit, notify)
	return &testStack{
		db:        db,
		settings:  settings,
		audit:     audit,
		notify:    notify,
		whitelist: whitelist,
		ingest:    ingest,
	}
}
