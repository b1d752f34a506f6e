package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthCheck descreve uma dependência. Ping é opcional; sem ele uma dependência configurada
// aparece como "configured".
type HealthCheck struct {
	Name       string
	Configured bool
	Ping       func(ctx context.Context) error
}

type HealthHandler struct {
	Checks    []HealthCheck
	Tracking  map[string]bool
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
	Tracking     map[string]bool   `json:"tracking,omitempty"`
}

func NewHealthHandler(version string, tracking map[string]bool, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		Checks:    checks,
		Tracking:  tracking,
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.Checks))
	status := "healthy"

	for _, c := range h.Checks {
		switch {
		case !c.Configured:
			deps[c.Name] = "not configured"
		case c.Ping == nil:
			deps[c.Name] = "configured"
		default:
			if err := c.Ping(ctx); err != nil {
				deps[c.Name] = fmt.Sprintf("unhealthy: %v", err)
				status = "degraded"
			} else {
				deps[c.Name] = "healthy"
			}
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
		Tracking:     h.Tracking,
	})
}
