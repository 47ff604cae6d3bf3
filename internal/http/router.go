package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/tidecalc/internal/config"
	"go.ngs.io/tidecalc/internal/metrics"
	"go.ngs.io/tidecalc/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(predictionUC *usecase.PredictionUseCase, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(), metrics.LatencyMiddleware())

	// Setup CORS middleware.
	// Default to allow all origins if none are configured.
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(predictionUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	tides := v1.Group("/tides")
	tides.GET("/predictions", handler.GetPredictions)
	tides.POST("/predictions", handler.PostPredictions)
	tides.GET("/height", handler.GetHeight)

	v1.GET("/constituents", handler.GetConstituentsList)
	v1.GET("/stations", handler.GetStations)

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
