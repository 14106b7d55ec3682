// Package main is the entrypoint for the wardrobe API server.
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

	"github.com/joho/godotenv"
	"github.com/vlyzo/wardrobe-api/internal/api"
	"github.com/vlyzo/wardrobe-api/internal/api/handler"
	mw "github.com/vlyzo/wardrobe-api/internal/api/middleware"
	"github.com/vlyzo/wardrobe-api/internal/api/response"
	"github.com/vlyzo/wardrobe-api/internal/cache"
	"github.com/vlyzo/wardrobe-api/internal/config"
	"github.com/vlyzo/wardrobe-api/internal/identity"
	"github.com/vlyzo/wardrobe-api/internal/storage"
	"github.com/vlyzo/wardrobe-api/internal/store"
	"github.com/vlyzo/wardrobe-api/internal/vision"
	"github.com/vlyzo/wardrobe-api/internal/wardrobe"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "vision_base_url", cfg.Vision.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create downstream clients
	visionClient := vision.NewHTTPClient(cfg.Vision.BaseURL, cfg.Vision.Timeout)
	storageClient := storage.NewSupabaseClient(
		cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.StorageBucket, cfg.Supabase.Timeout)
	resolver := identity.NewSupabaseResolver(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.Timeout)

	// 6. Create store and orchestrator
	pgStore := store.NewPostgresStore(pool)
	svc := wardrobe.NewService(pgStore, visionClient, storageClient, redisCache)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(resolver),
		RateLimit: mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMin),

		HealthHandler:       healthHandler(pgStore, redisCache),
		ProcessImageHandler: handler.NewProcessImageHandler(svc),
		JobStatusHandler:    handler.NewJobStatusHandler(svc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Vision.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] != "ok" || checks["cache"] != "ok" {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "degraded",
				"services": checks,
			})
			return
		}

		response.JSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
