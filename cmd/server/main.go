package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/realtime"
	"github.com/anonto42/friendsbook/backend/internal/router"
	"github.com/anonto42/friendsbook/backend/internal/validators"
	"github.com/anonto42/friendsbook/backend/pkg/config"
	"github.com/anonto42/friendsbook/backend/pkg/firebase"
	"github.com/anonto42/friendsbook/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	opts := router.Options{
		DB:               db.SQL,
		Redis:            db.Redis,
		IdentityProvider: cfg.IdentityProvider,
		JWTSecret:        cfg.JWTSecret,
		RealtimeSecret:   cfg.RealtimeSecret,
		CORSOrigins:      cfg.CORSOrigins,
		Logger:           logger,
	}

	if db.Mongo != nil {
		archive, err := realtime.NewMongoArchive(ctx, db.Mongo.Database(cfg.MongoDatabase))
		if err != nil {
			logger.Fatal("failed to prepare realtime archive", zap.Error(err))
		}
		opts.Archive = archive
	}

	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, logger)
		if err != nil {
			logger.Fatal("failed to initialize firebase", zap.Error(err))
		}
		opts.Firebase = app
	}

	if cfg.StorageEnabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
		opts.Uploads = uploader
	} else {
		logger.Info("object storage not configured, uploads disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e, logger, cfg.CORSOrigins)

	broker, err := router.SetupRoutes(e, opts)
	if err != nil {
		logger.Fatal("failed to set up routes", zap.Error(err))
	}

	go func() {
		if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("realtime broker stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
