package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pricescout/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	limiter := NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)

	// LLM proxy; non-POST methods get a 405 body from the handler
	router.Any("/api/openai", RateLimitMiddleware(limiter), handler.OpenAIProxy)

	// API v1 routes
	v1 := router.Group("/api/v1", RateLimitMiddleware(limiter))
	{
		v1.POST("/commands", handler.ProcessCommand)
		v1.GET("/history", handler.History)
		v1.POST("/connection/test", handler.TestConnection)

		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("", handler.CreateProduct)
			products.GET("/export", handler.ExportProducts)
			products.POST("/import", handler.ImportProducts)
			products.POST("/refresh/:kind", handler.RefreshProducts)
			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.PATCH("/:id", handler.PatchProduct)
			products.DELETE("/:id", handler.DeleteProduct)
			products.POST("/:id/search/:kind", handler.SearchProduct)
		}
	}

	return router
}
