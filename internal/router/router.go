package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "excellerator/docs"
	"excellerator/internal/handler"
	"excellerator/internal/middleware"
	"excellerator/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Convert    *handler.ConvertHandler
	Session    *handler.SessionHandler
	Conversion *handler.ConversionHandler
	Health     *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, allowedOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/google", h.Auth.GoogleLogin)
	auth.POST("/refresh", h.Auth.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.GET("/auth/me", h.Auth.Me)

	// Stateless routes used by the browser client
	protected.POST("/process-document", h.Convert.ProcessDocument)
	protected.POST("/chat", h.Convert.Chat)

	// Session routes
	sessions := protected.Group("/sessions")
	sessions.POST("", h.Session.Create)
	sessions.GET("/:id", h.Session.GetByID)
	sessions.DELETE("/:id", h.Session.Delete)
	sessions.POST("/:id/document", h.Session.Ingest)
	sessions.POST("/:id/messages", h.Session.Chat)
	sessions.PATCH("/:id/cells", h.Session.UpdateCell)
	sessions.DELETE("/:id/table", h.Session.ClearTable)
	sessions.POST("/:id/import", h.Session.Import)
	sessions.GET("/:id/export", h.Session.Export)
	sessions.POST("/:id/export/email", h.Session.EmailExport)

	protected.GET("/conversions", h.Conversion.List)

	return r
}
