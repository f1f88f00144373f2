package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	historyEnabled bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(historyEnabled bool) *HealthHandler {
	return &HealthHandler{historyEnabled: historyEnabled}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	History bool   `json:"history"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		History: h.historyEnabled,
	})
}
