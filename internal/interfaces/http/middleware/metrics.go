package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts, latencies and in-flight requests. The path
// label is the matched chi route pattern so ids in URLs do not explode
// label cardinality; unmatched requests are labelled "unmatched".
func Metrics(m *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active := m.HTTPActiveRequests.WithLabelValues(r.Method)
			active.Inc()
			defer active.Dec()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}
			prometheus.RecordHTTPRequest(m, r.Method, path, rec.status, time.Since(start))
		})
	}
}
