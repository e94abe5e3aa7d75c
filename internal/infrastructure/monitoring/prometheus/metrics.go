package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric PatentSentry records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Term engine
	TermCalculationsTotal   CounterVec
	TermCalculationDuration HistogramVec

	// Analysis
	AnalysesTotal CounterVec

	// Data source
	DataSourceRequestsTotal   CounterVec
	DataSourceRequestDuration HistogramVec
	DataSourceRetriesTotal    CounterVec

	// Cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	ErrorsTotal CounterVec
}

var (
	HTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	CalculationBuckets        = []float64{.00001, .00005, .0001, .0005, .001, .005, .01}
	DataSourceDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", HTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method"),

		TermCalculationsTotal:   collector.RegisterCounter("term_calculations_total", "Patent term calculations", "kind", "outcome"),
		TermCalculationDuration: collector.RegisterHistogram("term_calculation_duration_seconds", "Patent term calculation duration", CalculationBuckets, "kind"),

		AnalysesTotal: collector.RegisterCounter("analyses_total", "Patent analyses by source of the result", "source"),

		DataSourceRequestsTotal:   collector.RegisterCounter("datasource_requests_total", "Requests to the patent data source", "operation", "status"),
		DataSourceRequestDuration: collector.RegisterHistogram("datasource_request_duration_seconds", "Patent data source request duration", DataSourceDurationBuckets, "operation"),
		DataSourceRetriesTotal:    collector.RegisterCounter("datasource_retries_total", "Retried data source requests", "operation"),

		CacheHitsTotal:   collector.RegisterCounter("cache_hits_total", "Result cache hits", "cache"),
		CacheMissesTotal: collector.RegisterCounter("cache_misses_total", "Result cache misses", "cache"),

		ErrorsTotal: collector.RegisterCounter("errors_total", "Errors by component and code", "code", "component"),
	}
}

// NewNoopAppMetrics returns AppMetrics backed by NewNoopCollector.
func NewNoopAppMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTermCalculation counts a calculation; outcome is "ok" or "error".
func RecordTermCalculation(m *AppMetrics, kind string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if kind == "" {
		kind = "unknown"
	}
	m.TermCalculationsTotal.WithLabelValues(kind, outcome).Inc()
	m.TermCalculationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func RecordDataSourceRequest(m *AppMetrics, operation string, status int, duration time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "transport_error"
	}
	m.DataSourceRequestsTotal.WithLabelValues(operation, label).Inc()
	m.DataSourceRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(code, component).Inc()
}
