// Command apiserver serves the PatentSentry HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/config"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/PatentSentry/internal/interfaces/http"
	"github.com/turtacn/PatentSentry/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentSentry/internal/interfaces/http/middleware"
)

// Injected via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer logging.SetDefault(logger)()

	if *configPath != "" {
		err := config.Watch(*configPath, func(next *config.Config) {
			if err := logger.SetLevel(next.Log.Level); err != nil {
				logger.Warn("ignoring log level from reloaded config", logging.Err(err))
				return
			}
			logger.Info("configuration reloaded", logging.String("log_level", next.Log.Level))
		}, func(err error) {
			logger.Warn("configuration reload rejected", logging.Err(err))
		})
		if err != nil {
			return err
		}
	}

	collector := prometheus.NewNoopCollector()
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return err
		}
	}
	metrics := prometheus.NewAppMetrics(collector)

	cache, closeCache, err := buildCache(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Warn("closing cache", logging.Err(err))
		}
	}()

	source, err := buildSource(cfg, logger, metrics)
	if err != nil {
		return err
	}

	svc := analysis.NewService(analysis.Config{
		Source:               source,
		Cache:                cache,
		CacheTTL:             cfg.Cache.TTL,
		EnrichmentConfigured: cfg.EnrichmentConfigured(),
		Logger:               logger,
		Metrics:              metrics,
	})

	routerCfg := httpserver.RouterConfig{
		PatentHandler: handlers.NewPatentHandler(svc, logger, handlers.StatusInfo{
			Version:     version,
			PatentsView: cfg.PatentsViewConfigured(),
			Enrichment:  cfg.EnrichmentConfigured(),
		}, cfg.Server.MaxBodySize),
		HealthHandler: handlers.NewHealthHandler(version, readinessProbes(cache, source)...),
		Logger:        logger,
		Metrics:       metrics,
		MetricsPath:   cfg.Metrics.Path,
	}
	cors := middleware.DefaultCORSConfig(cfg.Server.CORSOrigins)
	routerCfg.CORS = &cors
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		routerCfg.RateLimiter = middleware.NewClientRateLimiter(cfg.Server.RateLimitPerMinute)
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("PatentSentry API server started",
		logging.String("version", version),
		logging.String("addr", srv.Addr()),
		logging.String("cache", cache.Name()),
		logging.Bool("patentsview", cfg.PatentsViewConfigured()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return srv.Stop(context.Background())
}
