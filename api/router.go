package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-audio-extract/api/handlers"
	"github.com/yourusername/yt-audio-extract/api/middleware"
	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

// RouterDeps holds everything the HTTP routes are served from.
// Repo and Events may be nil; history routes are then not registered.
type RouterDeps struct {
	Service *app.ExtractionService
	Repo    domain.OutcomeRepository
	Events  *logger.MultiLogger
	LogsDir string
	Logger  *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log, deps.Events))
	router.Use(middleware.Recovery(log))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Repo != nil)
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		extractionHandler := handlers.NewExtractionHandler(deps.Service, log)
		v1.POST("/extractions", extractionHandler.Extract)

		if deps.Repo != nil {
			historyHandler := handlers.NewHistoryHandler(deps.Repo, log)
			history := v1.Group("/history")
			{
				history.GET("", historyHandler.ListHistory)
				history.GET("/stats", historyHandler.GetStats)
				history.GET("/batches/:id", historyHandler.GetBatch)
			}
		}

		if deps.LogsDir != "" {
			logHandler := handlers.NewLogHandler(deps.LogsDir)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
