package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfqa/internal/app"
	"pdfqa/middleware"
)

// NewRouter builds the engine with the standard middleware chain and all
// routes.
func NewRouter(a *app.App) *gin.Engine {
	cfg := a.Config
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxMultipartMemory
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(a.Metrics))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	SetupRoutes(router, a)
	return router
}

func SetupRoutes(router *gin.Engine, a *app.App) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "PDF Chatbot API"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"timestamp":    time.Now(),
			"vector_store": a.Store.Backend(),
		})
	})

	SetupPDFRoutes(router, a)
	SetupChatRoutes(router, a)
}
