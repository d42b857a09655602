package handler

import (
	"github.com/Kevin42127/TinyLink/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Shortener *ShortenerHandler
	Admin     *AdminHandler
	Health    *HealthHandler
}

func NewRouter(h Handlers, corsOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(corsOrigins))

	// health check
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	api := router.Group("/api")
	{
		api.POST("/shorten", h.Shortener.ShortenURL)
		api.POST("/batch-shorten", h.Shortener.ShortenBatch)
		api.GET("/exists/:shortCode", h.Shortener.Exists)
		api.GET("/urls/:shortCode", h.Shortener.Resolve)
		api.DELETE("/urls/:shortCode", h.Shortener.Delete)

		api.GET("/history", h.Admin.History)
		api.DELETE("/urls", h.Admin.DeleteAll)
		api.POST("/admin/sweep", h.Admin.Sweep)
	}

	router.GET("/:shortCode", h.Shortener.Redirect)

	return router
}
