package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 5 * time.Second

const (
	statusReady    = "ready"
	statusDegraded = "degraded"
	statusNotReady = "not_ready"
)

// Probe checks one dependency. A failing Optional probe degrades readiness
// without taking the instance out of rotation.
type Probe struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

type HealthHandler struct {
	probes  []Probe
	version string
	started time.Time
	timeout time.Duration
}

func NewHealthHandler(version string, probes ...Probe) *HealthHandler {
	return &HealthHandler{
		probes:  probes,
		version: version,
		started: time.Now(),
		timeout: readinessTimeout,
	}
}

type LivenessResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type ProbeResult struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []ProbeResult `json:"checks,omitempty"`
}

// Liveness handles GET /healthz and never runs probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:        "alive",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// Readiness handles GET /readyz. Any failing required probe yields 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: statusReady, Checks: h.runProbes(ctx)}
	code := http.StatusOK
	for _, res := range resp.Checks {
		if res.Healthy {
			continue
		}
		if !res.Optional {
			resp.Status = statusNotReady
			code = http.StatusServiceUnavailable
			break
		}
		resp.Status = statusDegraded
	}
	writeJSON(w, code, resp)
}

// runProbes runs every probe concurrently; results keep registration order.
func (h *HealthHandler) runProbes(ctx context.Context) []ProbeResult {
	if len(h.probes) == 0 {
		return nil
	}
	results := make([]ProbeResult, len(h.probes))
	var g errgroup.Group
	for i, p := range h.probes {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			err := p.Check(ctx)
			results[i] = ProbeResult{
				Name:      p.Name,
				Healthy:   err == nil,
				Optional:  p.Optional,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
