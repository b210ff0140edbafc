package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	engine   *app.DownloadEngine
	batch    *app.BatchOrchestrator
	journal  domain.JournalRepository
	hub      *app.EventHub
	defaults domain.DefaultsConfig
	baseDir  string
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(
	engine *app.DownloadEngine,
	batch *app.BatchOrchestrator,
	journal domain.JournalRepository,
	hub *app.EventHub,
	defaults domain.DefaultsConfig,
	baseDir string,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		engine:   engine,
		batch:    batch,
		journal:  journal,
		hub:      hub,
		defaults: defaults,
		baseDir:  baseDir,
		logger:   logger,
	}
}

// StartDownloadRequest represents a request to start a single download
type StartDownloadRequest struct {
	URL            string `json:"url" binding:"required"`
	Destination    string `json:"destination,omitempty"`
	Format         string `json:"format,omitempty"`
	Quality        string `json:"quality,omitempty"`
	EmbedThumbnail *bool  `json:"embed_thumbnail,omitempty"`
}

// StartBatchRequest represents a request to start a batch download
type StartBatchRequest struct {
	URLs           []string `json:"urls" binding:"required"`
	Destination    string   `json:"destination,omitempty"`
	Format         string   `json:"format,omitempty"`
	Quality        string   `json:"quality,omitempty"`
	EmbedThumbnail *bool    `json:"embed_thumbnail,omitempty"`
}

// applyDefaults fills omitted fields from the configured defaults
func (h *DownloadHandler) applyDefaults(dest, format, quality string, embed *bool) (string, domain.Format, string, bool) {
	if dest == "" {
		dest = h.baseDir
	}
	if format == "" {
		format = h.defaults.Format
	}
	if quality == "" {
		if domain.Format(format) == domain.FormatAudio {
			quality = h.defaults.AudioQuality
		} else {
			quality = h.defaults.VideoQuality
		}
	}
	embedThumbnail := h.defaults.EmbedThumbnail
	if embed != nil {
		embedThumbnail = *embed
	}
	return dest, domain.Format(format), quality, embedThumbnail
}

// StartDownload handles POST /api/v1/downloads
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req StartDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest, format, quality, embed := h.applyDefaults(req.Destination, req.Format, req.Quality, req.EmbedThumbnail)
	dr := &domain.DownloadRequest{
		URL:            req.URL,
		Destination:    dest,
		Format:         format,
		Quality:        quality,
		EmbedThumbnail: embed,
	}

	task, err := h.engine.StartDownload(c.Request.Context(), dr)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"url":     task.URL,
	})
}

// StartBatch handles POST /api/v1/downloads/batch
func (h *DownloadHandler) StartBatch(c *gin.Context) {
	var req StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest, format, quality, embed := h.applyDefaults(req.Destination, req.Format, req.Quality, req.EmbedThumbnail)
	opts := app.BatchOptions{
		Destination:    dest,
		Format:         format,
		Quality:        quality,
		EmbedThumbnail: embed,
	}

	if err := h.batch.StartBatch(c.Request.Context(), req.URLs, opts, h.hub.CallbackFor("batch")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"total_videos": len(req.URLs),
	})
}

// Cancel handles POST /api/v1/downloads/cancel
func (h *DownloadHandler) Cancel(c *gin.Context) {
	batchCancelled := h.batch.RequestCancel()
	downloadCancelled := h.engine.RequestCancel()

	if !batchCancelled && !downloadCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to cancel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_cancelled": downloadCancelled,
		"batch_cancelled":    batchCancelled,
	})
}

// Status handles GET /api/v1/downloads/status
func (h *DownloadHandler) Status(c *gin.Context) {
	status := gin.H{
		"downloading":      h.engine.Busy(),
		"batch_processing": h.batch.Processing(),
		"cancel_requested": h.engine.CancelRequested(),
	}
	if task := h.engine.CurrentTask(); task != nil {
		status["task_id"] = task.ID
		status["url"] = task.URL
	}
	c.JSON(http.StatusOK, status)
}

// ListJournal handles GET /api/v1/downloads/journal
func (h *DownloadHandler) ListJournal(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.journal.FindRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list journal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.journal.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DownloadHandler) respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Download request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
