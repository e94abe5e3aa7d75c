package main

import (
	"context"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/config"
	"github.com/turtacn/PatentSentry/internal/infrastructure/cache/memory"
	"github.com/turtacn/PatentSentry/internal/infrastructure/database/redis"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

// resultCache is what the server needs from a cache backend.
type resultCache interface {
	analysis.ResultCache
	Name() string
}

// buildCache returns the configured backend and a function releasing it.
func buildCache(cfg *config.Config, logger logging.Logger) (resultCache, func() error, error) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return memory.New(cfg.Cache.MaxEntries, cfg.Cache.TTL), func() error { return nil }, nil
	}

	client, err := redis.NewClient(&redis.RedisConfig{
		Addrs:        []string{cfg.Redis.Addr},
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return redis.NewCache(client, logger, redis.WithPrefix(cfg.Cache.KeyPrefix)), client.Close, nil
}

// buildSource returns nil when no API key is configured; the service then
// answers data-source operations with SRC_001.
func buildSource(cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (analysis.PatentSource, error) {
	if !cfg.PatentsViewConfigured() {
		logger.Warn("patentsview api key not configured; search and analysis are disabled")
		return nil, nil
	}
	return patentsview.NewClient(patentsview.Config{
		BaseURL:       cfg.PatentsView.BaseURL,
		APIKey:        cfg.PatentsView.APIKey,
		Timeout:       cfg.PatentsView.Timeout,
		MaxRetries:    cfg.PatentsView.MaxRetries,
		RetryWait:     cfg.PatentsView.RetryWait,
		RatePerMinute: cfg.PatentsView.RatePerMinute,
	}, patentsview.WithLogger(logger), patentsview.WithMetrics(metrics), patentsview.WithUserAgent("patentsentry/"+version))
}

// readinessProbes makes the cache a hard dependency; a missing data source
// only degrades readiness since term calculation still works without it.
func readinessProbes(c resultCache, source analysis.PatentSource) []handlers.Probe {
	return []handlers.Probe{
		{Name: c.Name(), Check: c.Ping},
		{Name: "patentsview", Optional: true, Check: func(context.Context) error {
			if source == nil {
				return errors.New(errors.ErrCodeDataSourceUnavailable, "patentsview api key not configured")
			}
			return nil
		}},
	}
}
