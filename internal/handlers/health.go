package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/vidfriends/appcore/internal/logging"
)

// HealthCheck probes one dependency, e.g. the database pool.
type HealthCheck func(ctx context.Context) error

// HealthHandler responds with service health information.
type HealthHandler struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	payload := healthResponse{Status: "ok", Checks: map[string]string{}}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := h.Checks[name](checkCtx)
		cancel()
		if err != nil {
			logging.FromContext(ctx).Warn("health check failed", "check", name, "error", err)
			payload.Checks[name] = err.Error()
			payload.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		payload.Checks[name] = "ok"
	}
	respondJSON(ctx, w, status, payload)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
