package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RPG-CARDS/internal"
	"RPG-CARDS/internal/config"
	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/handlers"
	"RPG-CARDS/internal/processor"
	"RPG-CARDS/internal/services"
	"RPG-CARDS/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		ctxlog.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := ctxlog.New(os.Stderr, cfg.Server.LogLevel)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Optional database for the activity log and published export records
	var db *gorm.DB
	var activityLogs *services.ActivityLogService
	if cfg.Database.Enabled() {
		db, err = internal.InitDB(ctx, cfg)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer internal.CloseDB(db)
		activityLogs = services.NewActivityLogService(db)
	} else {
		logger.Info("DB_HOST not set, activity log disabled")
	}

	var exports *services.ExportService
	if cfg.GCS.Enabled() {
		bucket, err := storage.NewExportBucket(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			logger.Error("failed to initialize GCS bucket", "error", err)
			os.Exit(1)
		}
		defer bucket.Close()
		exports = services.NewExportService(bucket, db, cfg.GCS.SignedURLTTL)
	} else {
		logger.Info("GCS_BUCKET_NAME not set, publishing disabled")
	}

	var pdf *services.PDFService
	if cfg.Gotenberg.Enabled() {
		pdf, err = services.NewPDFService(ctx, cfg.Gotenberg.URL, cfg.Gotenberg.Timeout)
		if err != nil {
			logger.Error("failed to initialize PDF service", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("GOTENBERG_URL not set, printing disabled")
	}

	store := services.NewSessionStore(processor.MergeOptions{EscapeValues: cfg.Merge.EscapeValues})

	janitor := handlers.NewSessionJanitor(store, cfg.Session.MaxAge, cfg.Session.SweepInterval)
	janitor.Start(ctx)

	r := handlers.NewRouter(ctx, handlers.RouterDeps{
		Sessions:     store,
		Exports:      exports,
		PDF:          pdf,
		ActivityLogs: activityLogs,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	janitor.Stop(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
