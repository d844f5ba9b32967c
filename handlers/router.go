package handlers

import (
	"html/template"
	"net/http"

	"scdb-dashboard/service"
	"scdb-dashboard/web"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services are the dependencies of the HTTP API
type Services struct {
	Dashboard *service.DashboardService
	Sessions  *service.SessionService
	Exports   *service.ExportService
}

// NewRouter builds the gin engine with every route registered
func NewRouter(svc Services, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(web.Templates, "*.html")))

	dashboardHandler := NewDashboardHandler(svc.Dashboard, svc.Sessions, logger)
	exportHandler := NewExportHandler(svc.Exports, svc.Sessions, logger)

	r.GET("/", dashboardHandler.Index)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		sessions, err := svc.Sessions.Len(c.Request.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Session store unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": sessions,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/controls", dashboardHandler.GetControls)
		api.POST("/dashboard", dashboardHandler.Compute)

		// Session endpoints
		api.POST("/sessions", dashboardHandler.CreateSession)
		api.GET("/sessions/:id", dashboardHandler.GetSession)
		api.PUT("/sessions/:id", dashboardHandler.UpdateSession)
		api.DELETE("/sessions/:id", dashboardHandler.DeleteSession)
		api.GET("/sessions/:id/charts/:chart", dashboardHandler.GetChartPNG)
		api.GET("/sessions/:id/export", exportHandler.ExportSession)

		// Export endpoints
		api.POST("/export", exportHandler.ExportTable)
		api.GET("/exports", exportHandler.ListExports)
		api.GET("/exports/:id", exportHandler.GetExport)
		api.DELETE("/exports/:id", exportHandler.DeleteExport)
	}

	return r
}
