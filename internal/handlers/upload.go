package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
	"github.com/talentcopilot/backend/internal/types"
)

// 10 MB cap on uploaded documents.
const maxUploadBytes = 10 << 20

var errUnsupportedFile = errors.New("only PDF, DOCX and TXT files are allowed")

type UploadHandler struct {
	parser services.ProfileParser
	gate   services.GateService
}

func NewUploadHandler(parser services.ProfileParser, gate services.GateService) *UploadHandler {
	return &UploadHandler{parser: parser, gate: gate}
}

type uploadResponse struct {
	Parsed         *services.CandidateProfile `json:"parsed"`
	ConfirmationID string                     `json:"confirmation_id"`
	Prompt         string                     `json:"prompt"`
	Pending        bool                       `json:"pending"`
}

// POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusBadRequest, "missing_scope", errUnscopedRequest)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf", ".docx", ".doc", ".txt":
	default:
		RespondError(c, http.StatusBadRequest, "invalid_file", errUnsupportedFile)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}

	profile, err := h.parser.Parse(content, fileHeader.Filename)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	result, err := h.gate.ProposeAction(c.Request.Context(), rd, &services.ActionProposal{
		Kind:          types.ActionSaveCandidate,
		SaveCandidate: profile,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	resp := uploadResponse{
		Parsed:  profile,
		Prompt:  result.Reply,
		Pending: result.Pending,
	}
	if result.ConfirmationID != nil {
		resp.ConfirmationID = result.ConfirmationID.String()
	}
	RespondOK(c, resp)
}
