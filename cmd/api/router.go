package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangazinho-backend/internal/shared/middleware"
	"mangazinho-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	// Stored pages and covers are served directly off disk. URLs in page
	// records are relative to this mount.
	router.Static("/files", c.Storage.Root())

	router.GET("/health", healthCheckHandler(c))

	setupMangaRoutes(router, c)
	setupChapterRoutes(router, c)
	setupUploadRoutes(router, c)

	return router
}

// ========================================
// MANGA ROUTES
// ========================================
func setupMangaRoutes(r *gin.Engine, c *container.Container) {
	mangas := r.Group("/mangas")
	{
		mangas.POST("", c.MangaHandler.Create)
		mangas.GET("", c.MangaHandler.List)
		mangas.GET("/:mangaId", c.MangaHandler.GetByID)
		mangas.PUT("/:mangaId", c.MangaHandler.Update)
		mangas.DELETE("/:mangaId", c.MangaHandler.Delete)
	}
}

// ========================================
// CHAPTER + PAGE ROUTES
// ========================================
func setupChapterRoutes(r *gin.Engine, c *container.Container) {
	chapters := r.Group("/mangas/:mangaId/chapters")
	{
		chapters.POST("", c.ChapterHandler.Create)
		chapters.GET("", c.ChapterHandler.List)
		chapters.DELETE("/:number", c.ChapterHandler.Delete)
		chapters.POST("/:number/pages", c.ChapterHandler.UploadPages)
		chapters.GET("/:number/pages", c.ChapterHandler.ListPages)
	}
}

// ========================================
// UPLOAD ROUTES
// ========================================
func setupUploadRoutes(r *gin.Engine, c *container.Container) {
	upload := r.Group("/upload")
	{
		upload.POST("/mangas/:mangaId/cover", c.MangaHandler.UploadCover)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Redis being down degrades caching only, not the service.
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
