package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/session"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	manager *session.Manager
	version string
}

func NewHealthController(manager *session.Manager, version string) *HealthController {
	return &HealthController{
		manager: manager,
		version: version,
	}
}

// Status reports liveness. A missing backend configuration degrades the
// report but does not make the process unhealthy: the site still serves
// public pages without it.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.manager != nil && h.manager.Available() {
		checks["auth_backend"] = "configured"
	} else {
		checks["auth_backend"] = "not configured"
		status = "degraded"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	c.IndentedJSON(http.StatusOK, health)
}
