package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/types"
)

// HealthHandler serves the probe endpoints. None of them require auth.
type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// LivenessCheck answers as long as the process can serve HTTP.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": types.HealthStatusUp})
}

// ReadinessCheck fails only when the database is unreachable. A degraded
// redis still lets settlement traffic through.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	health := h.checker.CheckHealth(c.Request.Context())
	c.JSON(statusCodeFor(health.Status), gin.H{"status": health.Status})
}

// DetailedHealth reports every component with version and uptime.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	health := h.checker.CheckHealth(c.Request.Context())
	c.JSON(statusCodeFor(health.Status), health)
}

func statusCodeFor(status types.HealthStatus) int {
	if status == types.HealthStatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
