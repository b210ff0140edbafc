package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// VideoHandler handles metadata extraction HTTP requests
type VideoHandler struct {
	extractor *app.MetadataExtractor
	playlists *app.PlaylistExtractor
	logger    *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(extractor *app.MetadataExtractor, playlists *app.PlaylistExtractor, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		extractor: extractor,
		playlists: playlists,
		logger:    logger,
	}
}

// GetVideoInfo handles GET /api/v1/videos/info?url=...
func (h *VideoHandler) GetVideoInfo(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	video, err := h.extractor.GetVideoInfo(c.Request.Context(), url)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// GetPlaylistInfo handles GET /api/v1/playlists/info?url=...
func (h *VideoHandler) GetPlaylistInfo(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	playlist, err := h.playlists.GetPlaylistInfo(c.Request.Context(), url)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// GetThumbnail handles GET /api/v1/videos/thumbnail?url=...&max_w=...&max_h=...
// It proxies the image, downscaled to fit the bounds, so a local UI does not
// need remote origin access.
func (h *VideoHandler) GetThumbnail(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	maxW := queryInt(c, "max_w", 480)
	maxH := queryInt(c, "max_h", 270)

	data, contentType, err := h.extractor.DownloadThumbnail(c.Request.Context(), url, maxW, maxH)
	if err != nil {
		h.logger.Warn("Thumbnail fetch failed", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

// queryInt parses an integer query parameter, falling back when it is absent
// or negative. An explicit 0 disables the bound.
func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (h *VideoHandler) respondError(c *gin.Context, err error) {
	if domain.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("Extraction failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
