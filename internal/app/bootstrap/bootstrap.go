// Package bootstrap opens the PostgreSQL and Redis backends and builds the
// engine over them.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"inventra/db"
	"inventra/internal/app"
	"inventra/internal/config"
	"inventra/internal/infrastructure/cache"
	"inventra/internal/infrastructure/numerator"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/internal/infrastructure/storage/postgres/catalog_repo"
	"inventra/internal/infrastructure/storage/postgres/document_repo"
	"inventra/internal/infrastructure/storage/postgres/register_repo"
	"inventra/pkg/logger"
)

// Runtime is an opened engine with the resources it holds.
type Runtime struct {
	Pool       *postgres.Pool
	TxManager  *postgres.TxManager
	Services   *app.Services
	PriceCache *cache.PriceCache // nil when Redis is not configured

	redis redis.UniversalClient
}

// OpenPool connects to PostgreSQL using cfg.
func OpenPool(ctx context.Context, cfg config.DBConfig) (*postgres.Pool, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DSN)
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// Migrator returns the goose migrator over the embedded migrations.
func Migrator() *postgres.Migrator {
	return postgres.NewMigrator(db.Migrations, db.MigrationsDir)
}

// Open connects the backends, migrates when configured and builds the
// services. The main branch is created when missing.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	pool, err := OpenPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Pool: pool}

	if cfg.DB.AutoMigrate {
		if err := Migrator().Run(ctx, pool, "up"); err != nil {
			rt.Close()
			return nil, err
		}
		logger.Info(ctx, "migrations applied")
	}

	rt.TxManager = postgres.NewTxManager(pool, postgres.WithStatementTimeout(cfg.DB.StatementTimeout))

	recorder, err := postgres.NewAuditRecorder(rt.TxManager)
	if err != nil {
		rt.Close()
		return nil, err
	}

	deps := app.Deps{
		Repos:     Repositories(rt.TxManager),
		TxManager: rt.TxManager,
		Numerator: numerator.New(func(ctx context.Context) numerator.Querier {
			return rt.TxManager.GetQuerier(ctx)
		}),
		Audit: recorder,
	}

	if cfg.Redis.Enabled() {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.PriceCache = cache.NewPriceCache(rt.redis,
			cache.WithTTL(cfg.Redis.PriceTTL),
			cache.WithKeyPrefix(cfg.Redis.KeyPrefix),
		)
		if err := rt.PriceCache.Ping(ctx); err != nil {
			logger.Warn(ctx, "price cache unreachable, reads fall back to the database", "error", err)
		}
		deps.PriceCache = rt.PriceCache
	}

	rt.Services = app.NewServices(deps)

	if _, err := rt.Services.Branches.EnsureMain(ctx, cfg.Bootstrap.MainBranchName); err != nil {
		rt.Close()
		return nil, fmt.Errorf("ensure main branch: %w", err)
	}
	return rt, nil
}

// Repositories builds the PostgreSQL repositories.
func Repositories(txm *postgres.TxManager) app.Repositories {
	return app.Repositories{
		Branches:   catalog_repo.NewBranchRepo(txm),
		PriceTypes: catalog_repo.NewPriceTypeRepo(txm),
		Suppliers:  catalog_repo.NewSupplierRepo(txm),
		Products:   catalog_repo.NewProductRepo(txm),
		Stock:      register_repo.NewStockRepo(txm),
		Prices:     register_repo.NewPriceRepo(txm),
		Purchases:  document_repo.NewPurchaseRepo(txm),
		Transfers:  document_repo.NewTransferRepo(txm),
	}
}

// Close releases the backends.
func (r *Runtime) Close() {
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
}
