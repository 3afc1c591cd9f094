package api

import (
	"context"
	"net/http"
	"time"
)

// defaultHealthTimeout bounds each component check.
const defaultHealthTimeout = 3 * time.Second

// Component states reported by the health endpoint.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"
	statusDisabled = "disabled"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports the database and optional integrations.
//
// The database is required: if its ping fails the endpoint returns 503.
// A failing optional integration only degrades the overall status.
// Each check is bounded by healthTimeout even when the check itself ignores
// its context; the wrapper's ping waits for the statement lock, so a hung
// statement shows up here as a timed-out database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     statusOK,
		Version:    s.version,
		Components: make(map[string]ComponentHealth, 3),
	}

	dbHealth := checkComponent(r.Context(), s.healthTimeout, s.db.Ping)
	resp.Components["database"] = dbHealth

	switch {
	case s.mqtt == nil:
		resp.Components["mqtt"] = ComponentHealth{Status: statusDisabled}
	case s.mqtt.IsConnected():
		resp.Components["mqtt"] = ComponentHealth{Status: statusOK}
	default:
		resp.Components["mqtt"] = ComponentHealth{Status: statusDown, Error: "not connected"}
	}

	if s.influx == nil {
		resp.Components["influxdb"] = ComponentHealth{Status: statusDisabled}
	} else {
		resp.Components["influxdb"] = checkComponent(r.Context(), s.healthTimeout, s.influx.HealthCheck)
	}

	for _, c := range resp.Components {
		if c.Status == statusDown {
			resp.Status = statusDegraded
		}
	}

	status := http.StatusOK
	if dbHealth.Status != statusOK {
		resp.Status = statusDown
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// checkComponent runs check in its own goroutine and gives up after timeout.
// An abandoned check finishes in the background; its result is dropped.
func checkComponent(ctx context.Context, timeout time.Duration, check func(context.Context) error) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return ComponentHealth{Status: statusDown, Error: err.Error()}
		}
		return ComponentHealth{Status: statusOK}
	case <-ctx.Done():
		return ComponentHealth{Status: statusDown, Error: "health check timed out: " + ctx.Err().Error()}
	}
}
