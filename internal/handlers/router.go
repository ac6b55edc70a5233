package handlers

import (
	"context"
	"net/http"
	"time"

	"RPG-CARDS/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Sessions     *services.SessionStore
	Exports      *services.ExportService
	PDF          *services.PDFService
	ActivityLogs *services.ActivityLogService
	AllowOrigins []string
}

// NewRouter wires every API route. ctx carries the base logger.
func NewRouter(ctx context.Context, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(deps.ActivityLogs.LoggingMiddleware(ctx))

	if len(deps.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Skipped-Rows"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	sessionHandler := NewSessionHandler(deps.Sessions, deps.Exports, deps.PDF)
	logsHandler := NewLogsHandler(deps.ActivityLogs)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": deps.Sessions.Len()})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Session lifecycle and template editing
		v1.POST("/sessions", sessionHandler.CreateSession)
		v1.GET("/sessions/:sessionId", sessionHandler.GetSession)
		v1.DELETE("/sessions/:sessionId", sessionHandler.DeleteSession)
		v1.PUT("/sessions/:sessionId/form", sessionHandler.UpdateForm)
		v1.PUT("/sessions/:sessionId/template", sessionHandler.UpdateTemplate)

		// Data entry
		v1.POST("/sessions/:sessionId/rows", sessionHandler.AddRow)
		v1.PUT("/sessions/:sessionId/rows/:index", sessionHandler.UpdateRow)
		v1.DELETE("/sessions/:sessionId/rows/:index", sessionHandler.DeleteRow)
		v1.POST("/sessions/:sessionId/paste", sessionHandler.Paste)

		// Output
		v1.GET("/sessions/:sessionId/preview", sessionHandler.Preview)
		v1.GET("/sessions/:sessionId/export", sessionHandler.Export)
		v1.POST("/sessions/:sessionId/publish", sessionHandler.Publish)
		v1.GET("/sessions/:sessionId/print", sessionHandler.Print)

		// Activity log
		v1.GET("/logs", logsHandler.GetAllLogs)
		v1.GET("/logs/stats", logsHandler.GetLogStats)
		v1.GET("/logs/history", logsHandler.GetHistory)
	}

	return r
}
