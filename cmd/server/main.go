package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mt4-journal/internal/app"
	cronrunner "mt4-journal/internal/cron"
	"mt4-journal/internal/handler"
	"mt4-journal/internal/inbox"
	"mt4-journal/internal/logger"
)

func main() {
	if err := app.InitializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close(context.Background())
	cfg := a.Config

	zl, err := logger.Zap()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	a.CompressOldLogs(ctx)

	runner := cronrunner.New(zl, ctx)
	if cfg.Inbox.Enabled {
		watcher := inbox.New(cfg.Inbox.Dir, a.Importer)
		if _, err := runner.Add(cfg.Inbox.Schedule, func(ctx context.Context) {
			if _, err := watcher.ScanOnce(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Inbox scan failed", err, "dir", cfg.Inbox.Dir)
			}
		}); err != nil {
			zl.Fatal("schedule inbox scan failed", zap.Error(err))
		}
	}
	if _, err := runner.Add("0 5 0 * * *", a.CompressOldLogs); err != nil {
		zl.Fatal("schedule log compression failed", zap.Error(err))
	}
	runner.Start()
	defer runner.Stop()

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.UploadRatePerSec), cfg.Server.UploadBurst)
	engine := handler.NewEngine(cfg.Server.Mode, zl,
		&handler.HealthHandler{Repo: a.Store},
		&handler.StatementHandler{
			Importer:       a.Importer,
			Repo:           a.Store,
			Files:          a.Files,
			Limiter:        limiter,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
		},
		&handler.AccountHandler{Repo: a.Store, Reports: a.Reports},
	)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown failed", zap.Error(err))
	}
}
