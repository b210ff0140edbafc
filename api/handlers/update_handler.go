package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
)

// UpdateHandler handles self-update HTTP requests
type UpdateHandler struct {
	updater *infrastructure.GitHubUpdater
	logger  *zap.Logger
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(updater *infrastructure.GitHubUpdater, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{
		updater: updater,
		logger:  logger,
	}
}

// Check handles GET /api/v1/updates/check
func (h *UpdateHandler) Check(c *gin.Context) {
	info, err := h.updater.CheckForUpdate(c.Request.Context())
	if err != nil {
		h.logger.Error("Update check failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Download handles POST /api/v1/updates/download
func (h *UpdateHandler) Download(c *gin.Context) {
	info, err := h.updater.CheckForUpdate(c.Request.Context())
	if err != nil {
		h.logger.Error("Update check failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !info.Available {
		c.JSON(http.StatusConflict, gin.H{"error": "already on the latest version"})
		return
	}

	stageDir, err := h.updater.DownloadUpdate(c.Request.Context(), info)
	if err != nil {
		h.logger.Error("Update download failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"version":    info.LatestVersion,
		"staged_dir": stageDir,
	})
}
