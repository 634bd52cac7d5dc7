// Package bootstrap binds the configured catalog.Store realization and its
// optional decorators.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
)

type Deps struct {
	Log *zap.Logger
	// Registerer receives store metrics. Nil skips instrumentation.
	Registerer prometheus.Registerer
}

// Closer releases whatever OpenStore acquired. It is never nil.
type Closer func() error

// OpenStore builds the realization named by cfg.Store.Driver, then wraps it
// with the Redis cache and metrics when those are configured.
func OpenStore(ctx context.Context, cfg config.Config, deps Deps) (catalog.Store, Closer, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	var closers []func() error
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	store, closeBase, err := openBase(ctx, cfg.Store, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeBase)

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		closers = append(closers, client.Close)
		store = catalog.NewCachedStore(store, client, cfg.Cache.TTL, log)
		log.Info("product cache enabled", zap.String("addr", cfg.Cache.Addr))
	}

	if deps.Registerer != nil {
		store = catalog.NewInstrumentedStore(store, deps.Registerer)
	}

	return store, closeAll, nil
}

func openBase(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (catalog.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		latency := catalog.NoLatency
		if cfg.Latency {
			latency = catalog.DefaultLatency
		}
		log.Info("using in-memory catalog store", zap.Bool("latency", cfg.Latency))
		return catalog.NewMemStore(latency), noop, nil

	case config.DriverRemote:
		client := &http.Client{Timeout: cfg.Remote.Timeout}
		log.Info("using remote catalog store", zap.String("base_url", cfg.Remote.BaseURL))
		return catalog.NewRemoteStore(cfg.Remote.BaseURL, client, catalog.BreakerSettings{
			ConsecutiveFailures: cfg.Remote.Breaker.Failures,
			OpenTimeout:         cfg.Remote.Breaker.OpenTimeout,
		}), noop, nil

	case config.DriverPostgres:
		store, db, err := openPostgres(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, nil, err
		}
		return store, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (*catalog.PostgresStore, *sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	store := catalog.NewPostgresStore(db)
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := catalog.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if cfg.Seed {
		seeded, err := store.SeedIfEmpty(ctx)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("seed products: %w", err)
		}
		if seeded {
			log.Info("seeded empty products table")
		}
	}

	log.Info("using postgres catalog store")
	return store, db, nil
}
