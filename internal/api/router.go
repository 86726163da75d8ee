package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirrortube/coordinator/internal/api/handler"
	"github.com/mirrortube/coordinator/internal/api/middleware"
	"github.com/mirrortube/coordinator/internal/service"
)

// Services bundles everything the router dispatches to.
type Services struct {
	Registry    *service.RegistryService
	Dispatch    *service.DispatchService
	Commit      *service.CommitService
	Finalize    *service.FinalizeService
	Stats       *service.StatsService
	Submissions *service.SubmissionService
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svcs *Services, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	pagesHandler := handler.NewPagesHandler()
	workerHandler := handler.NewWorkerHandler(svcs.Registry)
	batchHandler := handler.NewBatchHandler(svcs.Dispatch)
	commitHandler := handler.NewCommitHandler(svcs.Commit, svcs.Finalize)
	statsHandler := handler.NewStatsHandler(svcs.Stats)
	submitHandler := handler.NewSubmitHandler(svcs.Submissions)

	r.GET("/", pagesHandler.Landing)
	r.GET("/health", pagesHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/stats", statsHandler.Stats)

		api.GET("/workers", workerHandler.List)
		api.POST("/workers/create", workerHandler.Create)

		api.POST("/batches", batchHandler.Next)
		api.POST("/batches/:id", batchHandler.Refetch)

		api.POST("/commit", commitHandler.Commit)
		api.POST("/finalize", commitHandler.Finalize)

		// Community submissions are browser-reachable; they get the CORS
		// wildcard and the OPTIONS preflight.
		submit := api.Group("", middleware.SubmissionCORS())
		{
			submit.POST("/videos/submit", submitHandler.Videos)
			submit.OPTIONS("/videos/submit", submitHandler.Videos)
			submit.POST("/playlists/submit", submitHandler.Playlists)
			submit.OPTIONS("/playlists/submit", submitHandler.Playlists)
			submit.POST("/channels/submit", submitHandler.Channels)
			submit.OPTIONS("/channels/submit", submitHandler.Channels)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "not found",
			"error_code": http.StatusNotFound,
		})
	})

	return r
}
