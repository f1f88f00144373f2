package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// HistoryHandler serves recorded outcomes of past batches
type HistoryHandler struct {
	repo   domain.OutcomeRepository
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo domain.OutcomeRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListHistory handles GET /api/v1/history
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	filter := domain.HistoryFilter{
		BatchID: c.Query("batch_id"),
		Limit:   50,
	}

	switch state := domain.RequestState(c.Query("state")); state {
	case "":
	case domain.StateSucceeded, domain.StateFailed:
		filter.State = state
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be succeeded or failed"})
		return
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit > 1000 {
			limit = 1000 // Max limit
		}
		filter.Limit = limit
	}

	records, err := h.repo.FindRecent(filter)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// GetBatch handles GET /api/v1/history/batches/:id
func (h *HistoryHandler) GetBatch(c *gin.Context) {
	id := c.Param("id")

	records, err := h.repo.FindByBatch(id)
	if err != nil {
		h.logger.Error("Failed to load batch", zap.String("batch_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	outcomes := make([]domain.Outcome, 0, len(records))
	for _, r := range records {
		outcomes = append(outcomes, r.Outcome())
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": id,
		"outcomes": outcomes,
		"summary":  domain.Summarize(outcomes),
	})
}

// GetStats handles GET /api/v1/history/stats
func (h *HistoryHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
