// Package handler provides HTTP handlers for the operational API: health
// checks, manual check-run triggers, and run status.
package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytebeasts/beastwatch/internal/api/respond"
	"github.com/bytebeasts/beastwatch/internal/config"
	"github.com/bytebeasts/beastwatch/internal/db"
	"github.com/bytebeasts/beastwatch/internal/watch"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool   *db.Pool
	runner *watch.Runner
	cfg    *config.Config

	mu   sync.RWMutex
	last *watch.Result
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, runner *watch.Runner, cfg *config.Config) *Handler {
	return &Handler{pool: pool, runner: runner, cfg: cfg}
}

// RecordRun stores the most recent run result for /api/v1/check/last.
// Called by both the scheduler loop and the manual trigger.
func (h *Handler) RecordRun(result *watch.Result) {
	if result == nil {
		return
	}
	h.mu.Lock()
	h.last = result
	h.mu.Unlock()
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Beastwatch",
		"version": "1.0.0",
		"status":  "running",
		"check": map[string]interface{}{
			"interval":        h.cfg.CheckInterval.String(),
			"vital_threshold": h.cfg.VitalThreshold,
			"cooldown_window": h.cfg.CooldownWindow.String(),
			"test_mode":       h.cfg.TestMode,
		},
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// TriggerCheck runs one check synchronously and returns its summary.
// Overlap with a scheduled run is tolerated; the cooldown store keeps
// duplicate notifications to at most one per owner.
func (h *Handler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusBadGateway, "CHECK_FAILED", err.Error())
		return
	}
	h.RecordRun(result)
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// LastCheck returns the most recent run result, scheduled or manual.
func (h *Handler) LastCheck(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()

	if last == nil {
		respond.WriteError(w, http.StatusNotFound, "NO_RUNS", "No check run has completed yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, last)
}
