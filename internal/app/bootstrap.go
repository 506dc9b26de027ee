// Package app wires configuration into the shared services used by every binary.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"mt4-journal/internal/analytics"
	"mt4-journal/internal/analytics/analyticsobs"
	"mt4-journal/internal/attachment"
	"mt4-journal/internal/db"
	"mt4-journal/internal/importer"
	"mt4-journal/internal/importer/importerobs"
	"mt4-journal/internal/importlog"
	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
	"mt4-journal/internal/report"
	gormrepository "mt4-journal/internal/repository/gorm"
	"mt4-journal/internal/statement"
	"mt4-journal/internal/statement/statementobs"
	"mt4-journal/internal/store"
	"mt4-journal/internal/trace"
)

type App struct {
	Config   *store.Config
	DB       *db.DB
	Store    *gormrepository.Store
	Files    *attachment.Store
	Audit    *importlog.Log
	Reports  *report.Service
	Importer interfaces.Importer
}

// InitializeSystem loads .env and starts the logger and tracer.
func InitializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// Open loads the config, opens and migrates the database and builds the services.
func Open(ctx context.Context) (*App, error) {
	path := store.ConfigPath()
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info(ctx, "Database ready", "driver", cfg.DB.Driver)

	repo := gormrepository.New(conn.Gorm)
	files := attachment.New(cfg.Storage.Dir)
	audit := importlog.New(cfg.ImportLog.Dir)
	reports := report.New(repo, analyticsobs.Wrap(analytics.NewEngine()), cfg.Report.CacheTTL, cfg.Report.DefaultPerPage)
	imp := importer.New(statementobs.Wrap(statement.NewParser()), repo, files, audit, reports)

	return &App{
		Config:   cfg,
		DB:       conn,
		Store:    repo,
		Files:    files,
		Audit:    audit,
		Reports:  reports,
		Importer: importerobs.Wrap(imp),
	}, nil
}

// CompressOldLogs gzips import log files past the retention window.
func (a *App) CompressOldLogs(ctx context.Context) {
	if a.Config.ImportLog.RetentionDays <= 0 {
		return
	}
	if err := a.Audit.CompressOlder(a.Config.ImportLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old import logs", "error", err)
	}
}

func (a *App) Close(ctx context.Context) {
	if err := db.Close(a.DB); err != nil {
		logger.Warn(ctx, "Failed to close database", "error", err)
	}
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}
