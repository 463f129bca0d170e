package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports the state of one dependency. Degraded dependencies do
// not fail the check: pages are still served from cache and fallback content.
type HealthCheck func() (name, state string, healthy bool)

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks: checks,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	status := "ok"
	deps := make(gin.H, len(h.checks))
	for _, check := range h.checks {
		name, state, healthy := check()
		deps[name] = state
		if !healthy {
			status = "degraded"
		}
	}

	body := gin.H{"status": status}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(http.StatusOK, body)
}
