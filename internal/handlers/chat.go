package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
)

type ChatHandler struct {
	gate services.GateService
}

func NewChatHandler(gate services.GateService) *ChatHandler {
	return &ChatHandler{gate: gate}
}

type chatRequest struct {
	Message string `json:"message"`
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusBadRequest, "missing_scope", errUnscopedRequest)
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", errEmptyMessage)
		return
	}

	result, err := h.gate.HandleTurn(c.Request.Context(), rd, req.Message)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}
