package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// HistoryHandler handles download history HTTP requests
type HistoryHandler struct {
	store domain.HistoryStore
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store domain.HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, h.store.GetRecords(limit))
}

// Delete handles DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.store.DeleteRecord(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "record deleted"})
}

// Clear handles DELETE /api/v1/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	h.store.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"message": "history cleared"})
}
