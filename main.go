package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/copaslink/copas/internal/allocator"
	"github.com/copaslink/copas/internal/config"
	"github.com/copaslink/copas/internal/hub"
	"github.com/copaslink/copas/internal/logger"
	"github.com/copaslink/copas/internal/policy"
	store "github.com/copaslink/copas/internal/repository"
	"github.com/copaslink/copas/internal/service"
	v1 "github.com/copaslink/copas/internal/transport/http/v1"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("database", cfg.DatabaseURL).
		Str("allocator", cfg.AllocatorMode).
		Msg("starting copas")

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Initialize update hub
	h := hub.New(log)
	go h.Run()

	// Initialize the id source. The local counter is a single-user
	// fallback mode: ids are sequential but unreserved.
	var ids service.IDSource
	switch cfg.AllocatorMode {
	case config.AllocatorLocal:
		log.Warn().Msg("using local non-authoritative id counter")
		ids = allocator.NewLocalCounter()
	default:
		ids = allocator.New(db, log)
	}

	// Initialize service and handlers
	svc := service.New(db, ids, policyEngine, h, log)
	handler := v1.NewHandler(svc, h)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Register routes
	handler.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().Int("port", cfg.HTTPPort).Msg("copas started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down copas")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	log.Info().Msg("copas stopped")
}
