package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyflow/planner-engine/internal/api"
	"github.com/studyflow/planner-engine/internal/cache"
	"github.com/studyflow/planner-engine/internal/calendar"
	"github.com/studyflow/planner-engine/internal/cleanup"
	"github.com/studyflow/planner-engine/internal/config"
	"github.com/studyflow/planner-engine/internal/gemini"
	"github.com/studyflow/planner-engine/internal/planner"
	"github.com/studyflow/planner-engine/internal/prompts"
	"github.com/studyflow/planner-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting planner-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"guest_mode", cfg.Planner.GuestMode,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize plan cache. A dead Redis degrades to repository reads
	// rather than blocking startup.
	var planCache planner.PlanCache
	redisCache, err := cache.NewPlanCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Planner.PlanTTL)
	if err != nil {
		slog.Warn("plan cache unavailable, continuing without it", "error", err)
	} else {
		planCache = redisCache
		slog.Info("plan cache connected", "address", cfg.Redis.Address)
	}

	// Load prompt templates
	promptLoader := prompts.NewLoader()
	if err := promptLoader.LoadFromDir(cfg.Planner.PromptsDir); err != nil {
		slog.Warn("failed to load prompt templates from dir", "dir", cfg.Planner.PromptsDir, "error", err)
	}

	// Select generator and projector. Guest mode swaps both for
	// deterministic mocks.
	var generator gemini.Generator
	var projector calendar.Projector

	if cfg.Planner.GuestMode {
		generator = &gemini.MockGenerator{}
		projector = &calendar.MockProjector{}
		slog.Info("guest mode enabled, using mock generator and projector")
	} else {
		generator = gemini.NewClient(
			cfg.Gemini.Endpoint,
			cfg.Gemini.Model,
			cfg.Gemini.APIKey,
			gemini.WithTimeout(cfg.Gemini.Timeout),
		)

		googleProjector, err := calendar.NewGoogleProjector(cfg.Calendar, repo)
		if err != nil {
			slog.Error("failed to create calendar projector", "error", err)
			os.Exit(1)
		}
		projector = googleProjector
	}

	// Initialize planner service
	svc := planner.NewService(repo, generator, planCache, promptLoader, cfg.Planner.PlanTTL)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, svc, projector, promptLoader, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			slog.Error("plan cache close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("planner-engine stopped")
}
