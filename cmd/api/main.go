package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/api"
	"github.com/mcg-iot/seniorsafe-backend/internal/cache"
	"github.com/mcg-iot/seniorsafe-backend/internal/config"
	"github.com/mcg-iot/seniorsafe-backend/internal/engine"
	"github.com/mcg-iot/seniorsafe-backend/internal/store"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Databases ─────────────────────────────────────────────────────────────
	systemDB, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("system database: %w", err)
	}
	defer systemDB.Close()
	logger.Info("system database connected")

	// The legacy LED collector store is optional: without it, households with
	// no readings in the system store simply come up empty.
	var legacyDB *sql.DB
	if cfg.LegacyDatabaseURL != "" {
		legacyDB, err = openDB(cfg.LegacyDatabaseURL)
		if err != nil {
			return fmt.Errorf("legacy database: %w", err)
		}
		defer legacyDB.Close()
		logger.Info("legacy database connected")
	}

	st := store.New(systemDB)
	source := store.NewActivitySource(systemDB, legacyDB, logger)

	// ── AI ────────────────────────────────────────────────────────────────────
	// Anthropic is primary. The OpenAI-compatible endpoint is the fallback
	// when OPENAI_API_KEY is also set. In production, set both keys for
	// maximum resilience.
	var model ai.TextModel
	switch {
	case cfg.AnthropicAPIKey != "" && cfg.OpenAIAPIKey != "":
		primary := ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicInferenceProfile)
		secondary := ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		model = ai.NewFallbackModel(primary, secondary, logger)
		logger.Info("ai: using Anthropic with OpenAI-compatible fallback")
	case cfg.AnthropicAPIKey != "":
		model = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicInferenceProfile)
		logger.Info("ai: using Anthropic only")
	default:
		model = ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		logger.Info("ai: using OpenAI-compatible endpoint only")
	}

	// ── Cache (optional) ──────────────────────────────────────────────────────
	var analysisCache engine.AnalysisCache
	if cfg.RedisAddr != "" {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		c, err := cache.New(cacheCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		cancel()
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer c.Close()
		analysisCache = c
		logger.Info("analysis cache connected", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(source, model, st, st, analysisCache, engine.Config{
		Alignment:        cfg.Alignment,
		GatewayTimeout:   cfg.GatewayTimeout,
		BatchConcurrency: cfg.BatchConcurrency,
		AutoFile:         cfg.AutoFileReports,
		SystemManagerID:  cfg.SystemManagerID,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(eng, st, api.Config{Env: cfg.Env}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generous — analysis endpoints wait on the model
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openDB opens a connection pool and verifies it is reachable before the
// server starts taking traffic.
func openDB(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
