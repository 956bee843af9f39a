package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wikid82/blackfeed/backend/internal/api/routes"
	"github.com/Wikid82/blackfeed/backend/internal/config"
	"github.com/Wikid82/blackfeed/backend/internal/database"
	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/server"
	"github.com/Wikid82/blackfeed/backend/internal/services"
	"github.com/Wikid82/blackfeed/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Logging with rotation, to both stdout and file
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "blackfeed.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	logger.Init(cfg.Environment == "development", mw)

	logger.Log().Infof("starting %s backend version %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	settings := services.NewSettingsService(db)
	audit := services.NewAuditService(db)
	notifications := services.NewNotificationService(db, settings)
	whitelist := services.NewWhitelistService(db, audit)
	indicators := services.NewIndicatorService(db, whitelist, audit)
	ingest := services.NewIngestService(db, whitelist, settings, audit, notifications)
	export := services.NewExportService(db, settings, audit, cfg.ExportDir)

	scheduler := services.NewScheduler(db, ingest, export, indicators, settings)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer scheduler.Stop()

	srv := server.New(cfg, routes.Deps{
		DB:            db,
		Ingest:        ingest,
		Indicators:    indicators,
		Whitelist:     whitelist,
		Audit:         audit,
		Notifications: notifications,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
