// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController handles health check endpoints.
type HealthController struct {
	storeHealthChecker func() bool
	storeDriver        string
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Driver    string `json:"driver,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewHealthController creates a new health controller instance.
func NewHealthController(storeHealthChecker func() bool, storeDriver string) *HealthController {
	return &HealthController{
		storeHealthChecker: storeHealthChecker,
		storeDriver:        storeDriver,
	}
}

// Check handles GET /health requests.
// It returns the current health status of the API and its store.
func (h *HealthController) Check(c *gin.Context) {
	dbStatus := "disconnected"
	if h.storeHealthChecker != nil && h.storeHealthChecker() {
		dbStatus = "connected"
	}

	response := HealthResponse{
		Status:    "ok",
		Database:  dbStatus,
		Driver:    h.storeDriver,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, response)
}
