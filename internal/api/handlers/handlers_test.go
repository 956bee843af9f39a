package handlers_test

import (
	"bytes"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

func newJSONBody(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

type handlerServices struct {
	settings   *services.SettingsService
	audit      *services.AuditService
	whitelist  *services.WhitelistService
	indicators *services.IndicatorService
	ingest     *services.IngestService
}

func setupServices(db *gorm.DB) handlerServices {
	settings := services.NewSettingsService(db)
	audit := services.NewAuditService(db)
	notify := services.NewNotificationService(db, settings)
	whitelist := services.NewWhitelistService(db, audit)
	return handlerServices{
		settings:   settings,
		audit:      audit,
		whitelist:  whitelist,
		indicators: services.NewIndicatorService(db, whitelist, audit),
		ingest:     services.NewIngestService(db, whitelist, settings, audit, notify),
	}
}
