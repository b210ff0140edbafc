package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	engine *app.DownloadEngine
	batch  *app.BatchOrchestrator
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine *app.DownloadEngine, batch *app.BatchOrchestrator) *HealthHandler {
	return &HealthHandler{
		engine: engine,
		batch:  batch,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Engine  struct {
		Downloading     bool `json:"downloading"`
		BatchProcessing bool `json:"batch_processing"`
	} `json:"engine"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: domain.AppVersion,
	}
	response.Engine.Downloading = h.engine.Busy()
	response.Engine.BatchProcessing = h.batch.Processing()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
