package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductCatalog/internal/bootstrap"
	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.Load(config.DefaultPaths)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	log.Info("config loaded", zap.Stringer("config", cfg))

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("catalog stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, bootstrap.Deps{Log: log, Registerer: reg})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	s := &catalog.Server{Store: store, Log: log}
	if cfg.HTTP.WriteLimit > 0 {
		s.WriteLimiter = kit.NewIPRateLimiter(cfg.HTTP.WriteLimit, time.Minute)
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		StoreDriver:    cfg.Store.Driver,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	return kit.RunHTTPServer(ctx, fmt.Sprintf(":%d", cfg.HTTP.Port), h, kit.ServerTimeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Shutdown:   cfg.HTTP.ShutdownTimeout,
	}, log)
}
