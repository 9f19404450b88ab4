// Command api is the Beastwatch service: a periodic beast care checker with
// an operational HTTP surface.
//
// Usage:
//
//	beastwatch-api
//	API_PORT=8080 CHECK_INTERVAL=1m beastwatch-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/bytebeasts/beastwatch/internal/api"
	"github.com/bytebeasts/beastwatch/internal/api/handler"
	"github.com/bytebeasts/beastwatch/internal/config"
	"github.com/bytebeasts/beastwatch/internal/cooldown"
	"github.com/bytebeasts/beastwatch/internal/db"
	"github.com/bytebeasts/beastwatch/internal/notify"
	"github.com/bytebeasts/beastwatch/internal/torii"
	"github.com/bytebeasts/beastwatch/internal/watch"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Push delivery (nil-safe when no server key is configured)
	sender := notify.NewFCMSender(cfg.FCMServerKey, logger)
	if sender == nil {
		logger.Info("Push delivery disabled (no FCM_SERVER_KEY)")
	}

	// Wire the check pipeline
	client := torii.NewClient(cfg.ToriiURL, cfg.ToriiRequestsPerMinute, logger)
	gate := cooldown.NewGate(cooldown.NewPostgresStore(pool.Pool), cfg.CooldownWindow)
	audit := notify.NewAuditLog(pool.Pool, logger)
	runner := watch.NewRunner(client, gate, sender, audit, watch.RunnerConfig{
		VitalThreshold: cfg.VitalThreshold,
		Workers:        cfg.CheckWorkers,
		TestMode:       cfg.TestMode,
		TestFCMToken:   cfg.TestFCMToken,
	}, logger)

	// Handler before scheduler so scheduled runs land in /check/last
	h := handler.New(pool, runner, cfg)

	// Start the check scheduler
	go watch.StartScheduler(ctx, runner, cfg.CheckInterval, h.RecordRun, logger)

	// Create router
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Beastwatch",
			"addr", addr,
			"environment", cfg.Environment,
			"check_interval", cfg.CheckInterval,
			"threshold", cfg.VitalThreshold)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
