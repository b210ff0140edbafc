package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/tube-fetch-go/api/handlers"
	"github.com/yourusername/tube-fetch-go/api/middleware"
	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
	"github.com/yourusername/tube-fetch-go/internal/infrastructure"
	"github.com/yourusername/tube-fetch-go/pkg/logger"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Engine     *app.DownloadEngine
	Batch      *app.BatchOrchestrator
	Extractor  *app.MetadataExtractor
	Playlists  *app.PlaylistExtractor
	History    domain.HistoryStore
	Journal    domain.JournalRepository
	Hub        *app.EventHub
	Updater    *infrastructure.GitHubUpdater
	Converter  *infrastructure.FFmpegConverter
	LogAdapter *logger.LoggerAdapter
	Defaults   domain.DefaultsConfig
	BaseDir    string
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := deps.LogAdapter.Engine()

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Engine, deps.Batch)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Progress event stream
	wsHandler := handlers.NewProgressWebSocketHandler(deps.Hub, log)
	router.GET("/ws/progress", wsHandler.Stream)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(
			deps.Engine, deps.Batch, deps.Journal, deps.Hub, deps.Defaults, deps.BaseDir, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.StartDownload)
			downloads.POST("/batch", downloadHandler.StartBatch)
			downloads.POST("/cancel", downloadHandler.Cancel)
			downloads.GET("/status", downloadHandler.Status)
			downloads.GET("/journal", downloadHandler.ListJournal)
			downloads.GET("/stats", downloadHandler.GetStats)
		}

		videoHandler := handlers.NewVideoHandler(deps.Extractor, deps.Playlists, log)
		videos := v1.Group("/videos")
		{
			videos.GET("/info", videoHandler.GetVideoInfo)
			videos.GET("/thumbnail", videoHandler.GetThumbnail)
		}
		v1.GET("/playlists/info", videoHandler.GetPlaylistInfo)

		historyHandler := handlers.NewHistoryHandler(deps.History)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.DELETE("/:id", historyHandler.Delete)
			history.DELETE("", historyHandler.Clear)
		}

		updateHandler := handlers.NewUpdateHandler(deps.Updater, log)
		updates := v1.Group("/updates")
		{
			updates.GET("/check", updateHandler.Check)
			updates.POST("/download", updateHandler.Download)
		}

		convertHandler := handlers.NewConvertHandler(deps.Converter, deps.Hub, log)
		v1.POST("/conversions", convertHandler.Convert)
	}

	return router
}
