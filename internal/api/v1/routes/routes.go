package routes

import (
	"github.com/gin-gonic/gin"

	"upload-ai/internal/api/v1/handlers"
	"upload-ai/internal/api/v1/services"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	runHandler := handlers.NewRunHandler(container.RunService)
	runs := router.Group("/runs")
	{
		runs.POST("", runHandler.Create)
		runs.GET("", runHandler.List)
		runs.GET("/:id", runHandler.Get)
		runs.GET("/:id/events", runHandler.Events)
		runs.DELETE("/:id", runHandler.Cancel)
	}
}

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	RunService services.RunService
}
