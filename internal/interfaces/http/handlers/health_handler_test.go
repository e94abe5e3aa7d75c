package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(name string, optional bool, err error) Probe {
	return Probe{Name: name, Optional: optional, Check: func(context.Context) error { return err }}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("0.1.0", Probe{Name: "cache", Check: func(context.Context) error {
		t.Fatal("liveness must not run probes")
		return nil
	}})

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "0.1.0", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name   string
		probes []Probe
		code   int
		status string
	}{
		{"no probes", nil, http.StatusOK, "ready"},
		{"all healthy", []Probe{probe("cache", false, nil), probe("patentsview", true, nil)}, http.StatusOK, "ready"},
		{"optional down", []Probe{probe("cache", false, nil), probe("patentsview", true, refused)}, http.StatusOK, "degraded"},
		{"required down", []Probe{probe("redis", false, refused), probe("patentsview", true, refused)}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("0.1.0", tt.probes...)
			w := httptest.NewRecorder()
			h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.code, w.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Len(t, resp.Checks, len(tt.probes))
		})
	}
}

func TestHealthHandler_ReadinessKeepsProbeOrder(t *testing.T) {
	h := NewHealthHandler("0.1.0",
		probe("redis", false, errors.New("connection refused")),
		probe("patentsview", true, nil),
	)
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "redis", resp.Checks[0].Name)
	assert.False(t, resp.Checks[0].Healthy)
	assert.Equal(t, "connection refused", resp.Checks[0].Error)
	assert.Equal(t, "patentsview", resp.Checks[1].Name)
	assert.True(t, resp.Checks[1].Optional)
}

func TestHealthHandler_ReadinessHonoursTimeout(t *testing.T) {
	h := NewHealthHandler("0.1.0", Probe{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	h.timeout = 0

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
