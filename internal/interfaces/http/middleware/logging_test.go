package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		handler := RequestID(RequestLogging(logging.NewLoggerFromCore(core), DefaultLoggingConfig())(statusHandler(tt.status)))

		r := httptest.NewRequest(http.MethodPost, "/patent-search", nil)
		r.Header.Set(RequestIDHeader, "req-1")
		serve(handler, r)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, tt.level, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, int64(tt.status), fields["status"])
		assert.Equal(t, "/patent-search", fields["path"])
		assert.Equal(t, "req-1", fields["request_id"])
	}
}

func TestRequestLogging_SkipsProbesAndFlagsSlow(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultLoggingConfig()
	cfg.SlowThreshold = time.Nanosecond
	handler := RequestLogging(logging.NewLoggerFromCore(core), cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}))

	serve(handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, 0, logs.Len())

	serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, int64(1), logs.All()[0].ContextMap()["bytes"])
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	w := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc")
	w = serve(handler, r)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
