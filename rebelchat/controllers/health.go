package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	httputils "rebelchat/rebelchat/utils/http"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Check tests one dependency; a nil error means healthy.
type Check func(ctx context.Context) error

type HealthResponse struct {
	Status       string            `json:"status"`
	Checks       map[string]string `json:"checks,omitempty"`
	Integrations map[string]bool   `json:"integrations,omitempty"`
}

type HealthController struct {
	checks       map[string]Check
	integrations map[string]bool
}

func NewHealthController() *HealthController {
	return &HealthController{checks: map[string]Check{}, integrations: map[string]bool{}}
}

// AddCheck registers a check run on every health request.
func (h *HealthController) AddCheck(name string, c Check) *HealthController {
	h.checks[name] = c
	return h
}

// Integration records whether an optional upstream is configured. It is
// reported but never fails the check.
func (h *HealthController) Integration(name string, configured bool) *HealthController {
	h.integrations[name] = configured
	return h
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	res := HealthResponse{Status: "ok"}
	if len(h.integrations) > 0 {
		res.Integrations = h.integrations
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if res.Checks == nil {
			res.Checks = map[string]string{}
		}
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			logging.ErrorLogger.Error("health check failed", zap.String("check", name), zap.Error(err))
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	httputils.WriteJSON(w, status, res)
}
