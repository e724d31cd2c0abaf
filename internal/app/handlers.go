package app

import (
	"github.com/talentcopilot/backend/internal/handlers"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/realtime"
)

type Handlers struct {
	Chat      *handlers.ChatHandler
	Confirm   *handlers.ConfirmHandler
	Upload    *handlers.UploadHandler
	Jobs      *handlers.JobsHandler
	Workspace *handlers.WorkspaceHandler
	Events    *handlers.EventsHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Chat:      handlers.NewChatHandler(services.Gate),
		Confirm:   handlers.NewConfirmHandler(services.Gate),
		Upload:    handlers.NewUploadHandler(services.Parser, services.Gate),
		Jobs:      handlers.NewJobsHandler(services.Jobs),
		Workspace: handlers.NewWorkspaceHandler(services.Workspace),
		Events:    handlers.NewEventsHandler(log, hub),
	}
}
