// @title Excellerator API
// @version 1.0
// @description Turns images and PDFs into editable tables, edits them by chat and exports them as spreadsheets.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	googleauth "excellerator/internal/auth/google"
	"excellerator/internal/config"
	"excellerator/internal/document"
	noopemail "excellerator/internal/email/noop"
	sesemail "excellerator/internal/email/ses"
	"excellerator/internal/gateway"
	_ "excellerator/internal/gateway/claude"
	_ "excellerator/internal/gateway/gemini"
	_ "excellerator/internal/gateway/openai"
	"excellerator/internal/handler"
	"excellerator/internal/logging"
	"excellerator/internal/port"
	"excellerator/internal/repository/memory"
	"excellerator/internal/repository/postgres"
	"excellerator/internal/router"
	"excellerator/internal/service"
	noopstorage "excellerator/internal/storage/noop"
	s3storage "excellerator/internal/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	loader, err := config.NewLoader()
	if err != nil {
		return fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "error", err)
			return
		}
		logging.SetLevel(next.Log.Level)
		logger.Info("config reloaded", "log_level", next.Log.Level)
	}) {
		logger.Info("watching config file", "path", loader.ConfigFile())
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Model gateway
	model, err := gateway.Build(&cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize model gateway: %w", err)
	}
	logger.Info("model gateway ready",
		"primary", cfg.Model.Primary.Provider,
		"model", cfg.Model.Primary.DefaultModel,
		"api_key", logging.RedactValue(cfg.Model.Primary.APIKey))

	// Conversion history
	var (
		db       *sqlx.DB
		convRepo port.ConversionRepository
	)
	if cfg.DB.Enabled {
		db, err = postgres.NewDB(ctx, &cfg.DB, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		convRepo = postgres.NewConversionRepo(db)
	} else {
		logger.Info("database disabled; conversion history is kept in memory")
		convRepo = memory.NewConversionRepo()
	}

	storage, err := newObjectStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	mailer, err := newMailer(&cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	// Services
	verifiers := map[string]port.SocialTokenVerifier{
		googleauth.ProviderName: googleauth.NewVerifier(cfg.Auth.GoogleClientID),
	}
	authSvc := service.NewAuthService(verifiers, cfg.JWT)
	extractionSvc := service.NewExtractionService(document.NewInspector(&cfg.Upload), model, logger)
	editSvc := service.NewEditService(model, logger)
	store := memory.NewSessionStore()
	sessionSvc := service.NewSessionService(store, extractionSvc, editSvc, convRepo, storage, mailer,
		cfg.Session, cfg.Storage, logger)
	conversionSvc := service.NewConversionService(convRepo)

	janitor := service.NewSessionJanitor(store, cfg.Session, logger)
	go janitor.Start(ctx)

	// Handlers
	maxBytes := cfg.Upload.MaxFileSizeBytes()
	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	r := router.Setup(authSvc, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Convert:    handler.NewConvertHandler(extractionSvc, editSvc, maxBytes),
		Session:    handler.NewSessionHandler(sessionSvc, maxBytes),
		Conversion: handler.NewConversionHandler(conversionSvc),
		Health:     handler.NewHealthHandler(pinger),
	}, cfg.CORS.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newObjectStorage(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	switch cfg.Provider {
	case "s3":
		return s3storage.NewS3Client(cfg)
	case "", "noop":
		return noopstorage.NewNoopStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func newMailer(cfg *config.EmailConfig, logger *slog.Logger) (port.ExportMailer, error) {
	switch cfg.Provider {
	case "ses":
		return sesemail.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName)
	case "", "noop":
		return noopemail.NewNoopSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
