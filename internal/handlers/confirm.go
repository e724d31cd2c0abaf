package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
)

var (
	errUnscopedRequest = errors.New("request is missing tenant/user scope")
	errEmptyMessage    = errors.New("message must not be empty")
	errEmptyDecision   = errors.New("decision must not be empty")
)

type ConfirmHandler struct {
	gate services.GateService
}

func NewConfirmHandler(gate services.GateService) *ConfirmHandler {
	return &ConfirmHandler{gate: gate}
}

type confirmRequest struct {
	ConfirmationID string `json:"confirmation_id"`
	Decision       string `json:"decision"`
}

// POST /api/confirm
func (h *ConfirmHandler) Confirm(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusBadRequest, "missing_scope", errUnscopedRequest)
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Decision == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", errEmptyDecision)
		return
	}

	confirmationID := uuid.Nil
	if req.ConfirmationID != "" {
		parsed, err := uuid.Parse(req.ConfirmationID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_confirmation_id", err)
			return
		}
		confirmationID = parsed
	}

	result, err := h.gate.Resolve(c.Request.Context(), rd, confirmationID, req.Decision)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}
