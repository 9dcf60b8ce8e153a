package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

// pinger defines the minimal interface for dependency health checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	deps    map[string]pinger
	version string
}

// NewHealthHandler creates a HealthHandler. The database is always checked;
// further components can be added with WithComponent.
func NewHealthHandler(db pinger, version string) *HealthHandler {
	return &HealthHandler{deps: map[string]pinger{"database": db}, version: version}
}

// WithComponent registers an additional dependency under name.
func (h *HealthHandler) WithComponent(name string, p pinger) *HealthHandler {
	h.deps[name] = p
	return h
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 if every component answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, ok := h.check(r.Context())

	status, body := http.StatusOK, "ok"
	if !ok {
		status, body = http.StatusServiceUnavailable, "down"
	}
	writeJSON(w, status, HealthResponse{
		Status:    body,
		Timestamp: time.Now(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.check(r.Context())

	status, overall := http.StatusOK, "ok"
	if !ok {
		status, overall = http.StatusServiceUnavailable, "down"
	}
	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

// check pings every component concurrently within healthTimeout.
func (h *HealthHandler) check(ctx context.Context) (map[string]CompStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var (
		mu         sync.Mutex
		g          errgroup.Group
		components = make(map[string]CompStatus, len(h.deps))
	)
	for name, p := range h.deps {
		g.Go(func() error {
			start := time.Now()
			err := p.Ping(ctx)
			st := CompStatus{Status: "down"}
			if err == nil {
				st = CompStatus{Status: "ok", Latency: time.Since(start).String()}
			}
			mu.Lock()
			components[name] = st
			mu.Unlock()
			return err
		})
	}
	return components, g.Wait() == nil
}
