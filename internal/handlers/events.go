package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/realtime"
	"github.com/talentcopilot/backend/internal/requestdata"
)

// EventsHandler exposes the SSE stream. Each connection subscribes to the
// user's channel; one active stream per session, a reconnect replaces the
// previous client.
type EventsHandler struct {
	log *logger.Logger
	hub *realtime.Hub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.Client
}

func NewEventsHandler(log *logger.Logger, hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{
		log:     log.With("handler", "Events"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.Client),
	}
}

// GET /api/events
func (h *EventsHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusBadRequest, "missing_scope", errUnscopedRequest)
		return
	}
	if !rd.HasSession() {
		RespondError(c, http.StatusBadRequest, "missing_session", errUnscopedRequest)
		return
	}

	h.mu.Lock()
	if existing, ok := h.clients[rd.SessionID]; ok {
		h.hub.CloseClient(existing)
		delete(h.clients, rd.SessionID)
	}
	client := h.hub.NewClient(rd.UserID)
	h.clients[rd.SessionID] = client
	h.mu.Unlock()

	h.hub.AddChannel(client, rd.UserID.String())
	h.log.Info("SSE stream open", "userID", rd.UserID, "sessionID", rd.SessionID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	delete(h.clients, rd.SessionID)
	h.mu.Unlock()
	h.hub.CloseClient(client)
}
