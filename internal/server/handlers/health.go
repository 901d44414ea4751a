package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Uptime    string       `json:"uptime"`
	Timestamp string       `json:"timestamp"`
	Database  string       `json:"database"`
}

var startTime = time.Now()

const healthCheckTimeout = 5 * time.Second

// Health reports service liveness and database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "ok",
	}

	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = HealthStatusUnhealthy
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	JSON(w, status, resp)
}
