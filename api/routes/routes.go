package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/metadata-extractor/api/handlers"
	"github.com/feichai0017/metadata-extractor/api/middleware"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	r.Use(middleware.AccessLog(log))

	v1 := r.Group("/api/v1")

	v1.GET("/health", h.Health.Health)

	meta := v1.Group("/metadata")
	{
		meta.POST("/extract", h.Metadata.Extract)
		meta.POST("/batch", h.Metadata.Batch)
		meta.GET("/status/:taskId", h.Metadata.GetStatus)
		meta.GET("/result/:taskId", h.Metadata.GetResult)
		meta.DELETE("/task/:taskId", h.Metadata.CancelTask)
	}
}
