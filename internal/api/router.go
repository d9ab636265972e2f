// Package api exposes the catalog and progress store over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/katalyst/internal/logger"
)

// RouterConfig holds what the router needs.
type RouterConfig struct {
	Handler *Handler
	APIKey  string
	Logger  *logger.Logger
}

// NewRouter builds the gin engine. Every route except the health check
// requires the API key.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS())

	r.GET("/healthz", cfg.Handler.Health)

	protected := r.Group("/")
	protected.Use(APIKeyAuth(cfg.APIKey))
	{
		protected.GET("/courses", cfg.Handler.ListCourses)
		protected.POST("/courses", cfg.Handler.CreateCourse)
		protected.GET("/courses/:id", cfg.Handler.GetCourse)
		protected.POST("/courses/:id/progress", cfg.Handler.RecordProgress)
		protected.GET("/courses/:id/progress/:userId", cfg.Handler.GetProgress)
	}
	return r
}
