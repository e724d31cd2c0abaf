package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
)

type WorkspaceHandler struct {
	workspace services.WorkspaceService
}

func NewWorkspaceHandler(workspace services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace}
}

// GET /api/workspace
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusBadRequest, "missing_scope", errUnscopedRequest)
		return
	}

	view, err := h.workspace.List(c.Request.Context(), rd)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}
