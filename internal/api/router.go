// Package api serves the riff operations over HTTP for a local web UI.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
)

// Service is what the handlers need from the application layer.
type Service interface {
	Generate(ctx context.Context, topic string, model models.Model) (*models.Generation, error)
	Generating() bool
	SaveLocally(ctx context.Context, article models.Article) (models.SavedArticle, error)
	ListSaved(ctx context.Context) ([]models.SavedArticle, error)
	DeleteSaved(ctx context.Context, id string) error
	ExportToDrive(ctx context.Context, article models.Article) (*drive.Result, error)
	ExportSaved(ctx context.Context, id string) (*drive.Result, models.SavedArticle, error)
	Settings() config.Settings
	SaveSettings(ctx context.Context, s config.Settings) error
	DriveStatus() (drive.State, error)
}

// NewRouter builds the gin engine. allowedOrigins feeds CORS for a UI served elsewhere.
func NewRouter(svc Service, allowedOrigins []string, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Discard()
	}

	h := &handlers{svc: svc, logger: log.With("component", "api")}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/api/health", h.health)

	api := r.Group("/api")
	{
		api.POST("/riffs", h.generate)

		api.GET("/saved", h.listSaved)
		api.POST("/saved", h.saveLocally)
		api.DELETE("/saved/:id", h.deleteSaved)
		api.POST("/saved/:id/export", h.exportSaved)

		api.POST("/drive/export", h.exportToDrive)

		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.putSettings)
	}

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
