package app

import (
	"github.com/gin-gonic/gin"

	"github.com/talentcopilot/backend/internal/server"
)

func wireRouter(handlers Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ScopeMiddleware:  mw.Scope,
		ChatHandler:      handlers.Chat,
		ConfirmHandler:   handlers.Confirm,
		UploadHandler:    handlers.Upload,
		JobsHandler:      handlers.Jobs,
		WorkspaceHandler: handlers.Workspace,
		EventsHandler:    handlers.Events,
	})
}
