package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// ExtractionHandler runs extraction batches over HTTP
type ExtractionHandler struct {
	service *app.ExtractionService
	logger  *zap.Logger
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(service *app.ExtractionService, logger *zap.Logger) *ExtractionHandler {
	return &ExtractionHandler{
		service: service,
		logger:  logger,
	}
}

// ExtractRequest represents a request to extract audio from URLs
type ExtractRequest struct {
	URLs        []string `json:"urls" binding:"required"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// Extract handles POST /api/v1/extractions.
// The call blocks until every URL reached a terminal state. Per-URL failures
// are reported inside the 200 response; only a batch that could not run fails the call.
func (h *ExtractionHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Concurrency < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidConcurrency.Error()})
		return
	}

	// a client disconnect must not kill yt-dlp runs already in flight
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := h.service.Run(ctx, req.URLs, req.Concurrency)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		h.logger.Error("Batch aborted", zap.Error(err))
		body := gin.H{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusOK, report)
}
