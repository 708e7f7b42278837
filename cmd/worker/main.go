// Package main is the entry point for the Inventra maintenance worker. It
// expires idempotency keys and reports pool statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventra/internal/app/bootstrap"
	"inventra/internal/config"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/pkg/logger"
)

const poolStatsInterval = 5 * time.Minute

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

	log.Info("starting inventra worker")

	pool, err := bootstrap.OpenPool(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.DB.StatementTimeout))
	worker := &Worker{
		pool:            pool,
		idempotency:     postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL),
		cleanupInterval: cfg.Idempotency.CleanupInterval,
		log:             log.WithComponent("worker"),
	}
	worker.Run(ctx)

	log.Info("worker stopped")
}

// Worker runs periodic maintenance until its context is cancelled.
type Worker struct {
	pool            *postgres.Pool
	idempotency     *postgres.IdempotencyStore
	cleanupInterval time.Duration
	log             *logger.Logger
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(w.cleanupInterval)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(poolStatsInterval)
	defer statsTicker.Stop()

	w.cleanupIdempotency(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		case <-statsTicker.C:
			w.pool.LogStats(ctx)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
