package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/api/handlers"
	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/completion"
	"github.com/dvloznov/mahjong-ledger/internal/config"
	"github.com/dvloznov/mahjong-ledger/internal/gcsuploader"
	"github.com/dvloznov/mahjong-ledger/internal/infra"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("MAHJONG_CONFIG"), "Path to YAML config file (or set MAHJONG_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Initialize logger
	log := logger.NewWithLevel(cfg.Log.Level)
	ctx := logger.WithContext(context.Background(), log)

	// Initialize store
	recordStore, err := infra.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer recordStore.Close()

	// Initialize completion client
	backend, err := completion.NewBackend(cfg.Completion.Provider, cfg.Completion.APIKey, cfg.Completion.Model, cfg.Completion.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure completion backend")
	}
	if cfg.Completion.APIKey == "" {
		log.Warn().Str("provider", backend.Name()).Msg("No completion API key configured - extraction will be unavailable")
	}
	client := completion.NewClient(backend, cfg.Completion.Timeout)

	svc := ledger.NewService(recordStore, client)

	var storage gcsuploader.StorageService
	if cfg.Backup.Bucket != "" {
		storage = gcsuploader.NewGCSStorageService()
	} else {
		log.Warn().Msg("No GCS bucket configured - cloud backups will be disabled")
	}

	// Create router
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, svc, storage, cfg.Backup.Bucket, log)

	if len(cfg.Auth.Tokens) == 0 {
		log.Warn().Msg("No auth tokens configured - every API request will be rejected")
	}
	verifier := middleware.StaticTokens(cfg.Auth.Tokens)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(verifier, cfg.Auth.SessionTimeout, log)(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Completion.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("store", cfg.Store.Driver).
			Str("provider", backend.Name()).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
