package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/services"
)

func uploadFile(t *testing.T, router *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadParsesAndProposes(t *testing.T) {
	confirmationID := uuid.New()
	gate := &stubGate{result: &services.TurnResult{
		Reply:          services.SaveCandidatePrompt,
		Pending:        true,
		ConfirmationID: &confirmationID,
	}}
	router := scopedRouter(func(g *gin.RouterGroup) {
		g.POST("/upload", NewUploadHandler(services.NewHeuristicParser(logger.NewNop()), gate).Upload)
	})

	w := uploadFile(t, router, "resume.txt", "Jane Doe\njane@example.com\nSkills: Go, Postgres")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp uploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Pending || resp.Prompt != services.SaveCandidatePrompt {
		t.Fatalf("response = %+v", resp)
	}
	if resp.ConfirmationID != confirmationID.String() {
		t.Fatalf("confirmation id = %q", resp.ConfirmationID)
	}
	if resp.Parsed == nil || resp.Parsed.ContactInfo["email"] != "jane@example.com" {
		t.Fatalf("parsed profile = %+v", resp.Parsed)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	gate := &stubGate{result: &services.TurnResult{Reply: "unused"}}
	router := scopedRouter(func(g *gin.RouterGroup) {
		g.POST("/upload", NewUploadHandler(services.NewHeuristicParser(logger.NewNop()), gate).Upload)
	})

	for _, filename := range []string{"resume.exe", "resume.html", "resume"} {
		w := uploadFile(t, router, filename, "content")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", filename, w.Code)
		}
	}
}

func TestUploadEmptyDocumentIsRejected(t *testing.T) {
	gate := &stubGate{result: &services.TurnResult{Reply: "unused"}}
	router := scopedRouter(func(g *gin.RouterGroup) {
		g.POST("/upload", NewUploadHandler(services.NewHeuristicParser(logger.NewNop()), gate).Upload)
	})

	w := uploadFile(t, router, "resume.txt", "   ")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}
