package handlers

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
)

// ConvertHandler handles format conversion HTTP requests
type ConvertHandler struct {
	converter *infrastructure.FFmpegConverter
	hub       *app.EventHub
	logger    *zap.Logger
}

// NewConvertHandler creates a new convert handler
func NewConvertHandler(converter *infrastructure.FFmpegConverter, hub *app.EventHub, logger *zap.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		hub:       hub,
		logger:    logger,
	}
}

// ConvertRequest represents a request to convert a downloaded file
type ConvertRequest struct {
	InputPath    string `json:"input_path" binding:"required"`
	TargetFormat string `json:"target_format" binding:"required"`
}

// Convert handles POST /api/v1/conversions. The conversion runs in the
// background; progress and the terminal event arrive on the event stream.
func (h *ConvertHandler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := domain.Format(req.TargetFormat)
	if !domain.ValidateFormat(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported target format"})
		return
	}
	if !h.converter.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ffmpeg is not available"})
		return
	}

	publish := h.hub.CallbackFor("converter")
	go func() {
		publish(domain.Starting{Message: "Converting " + filepath.Base(req.InputPath)})

		output, err := h.converter.Convert(context.Background(), req.InputPath, target, func(ratio float64) {
			publish(domain.Processing{
				Percent:  ratio * 100,
				Filename: filepath.Base(req.InputPath),
			})
		})
		if err != nil {
			h.logger.Error("Conversion failed",
				zap.String("input", req.InputPath),
				zap.Error(err))
			publish(domain.Failure{Message: err.Error()})
			return
		}
		publish(domain.Complete{
			Message:  "Conversion complete",
			Filename: output,
		})
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"input_path":    req.InputPath,
		"target_format": string(target),
	})
}
