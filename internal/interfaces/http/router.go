package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentry/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentSentry/internal/interfaces/http/middleware"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

// RouterConfig aggregates the handlers and middleware settings needed to
// build the route tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	PatentHandler *handlers.PatentHandler
	HealthHandler *handlers.HealthHandler

	CORS        *middleware.CORSConfig
	Logging     *middleware.LoggingConfig
	RateLimiter *middleware.ClientRateLimiter

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.AppMetrics
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

func NewRouter(cfg RouterConfig) http.Handler {
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		logCfg := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			logCfg = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, logCfg))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, "/healthz", "/readyz", metricsPath))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle(metricsPath, cfg.MetricsCollector.Handler())
	}

	if h := cfg.PatentHandler; h != nil {
		r.Get("/", h.Status)
		r.Post("/patent-search", h.PatentSearch)
		r.Post("/search", h.LegacySearch)
		r.Post("/analyze", h.LegacyAnalyze)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"` + string(errors.ErrCodeNotFound) + `","message":"route not found"}`))
	})

	return r
}
