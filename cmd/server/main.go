// Package main is the entry point for the Inventra API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"inventra/internal/app/bootstrap"
	"inventra/internal/config"
	v1 "inventra/internal/infrastructure/http/v1"
	"inventra/internal/infrastructure/http/v1/handlers"
	"inventra/internal/infrastructure/http/v1/middleware"
	"inventra/internal/infrastructure/metrics"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDev(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting inventra server", "version", cfg.App.Version, "env", cfg.App.Env)

	rt, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open engine", "error", err)
	}
	defer rt.Close()

	var m *metrics.Metrics
	if cfg.App.MetricsEnabled {
		m = metrics.New()
		m.RegisterPool(rt.Pool)
	}

	var idem middleware.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idem = postgres.NewIdempotencyStore(rt.TxManager, cfg.Idempotency.TTL)
	}

	checks := map[string]handlers.Pinger{"database": rt.Pool}
	if rt.PriceCache != nil {
		checks["price_cache"] = rt.PriceCache
	}

	router := v1.NewRouter(v1.RouterConfig{
		Services:     rt.Services,
		Logger:       log,
		Metrics:      m,
		Idempotency:  idem,
		HealthChecks: checks,
		Version:      cfg.App.Version,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
