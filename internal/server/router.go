package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/talentcopilot/backend/internal/handlers"
	"github.com/talentcopilot/backend/internal/middleware"
)

type RouterConfig struct {
	ScopeMiddleware  *middleware.ScopeMiddleware
	ChatHandler      *handlers.ChatHandler
	ConfirmHandler   *handlers.ConfirmHandler
	UploadHandler    *handlers.UploadHandler
	JobsHandler      *handlers.JobsHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	EventsHandler    *handlers.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("talentcopilot-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:8501",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.HeaderTenantID, middleware.HeaderUserID, middleware.HeaderSessionID},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.ScopeMiddleware.RequireScope())
	{
		api.POST("/chat", cfg.ChatHandler.Chat)
		api.POST("/confirm", cfg.ConfirmHandler.Confirm)
		api.POST("/upload", cfg.UploadHandler.Upload)
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.GET("/workspace", cfg.WorkspaceHandler.GetWorkspace)
		api.GET("/events", cfg.EventsHandler.Stream)
	}

	return router
}
