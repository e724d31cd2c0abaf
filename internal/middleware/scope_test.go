package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/talentcopilot/backend/internal/db"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

type scopeFixture struct {
	router   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
	captured *requestdata.RequestData
}

func newScopeFixture(t *testing.T) *scopeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	f := &scopeFixture{tenantID: uuid.New(), userID: uuid.New()}
	if err := gdb.Create(&types.Tenant{ID: f.tenantID, Name: "acme"}).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	if err := gdb.Create(&types.User{ID: f.userID, TenantID: f.tenantID, Email: "recruiter@acme.test"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	log := logger.NewNop()
	scope := NewScopeMiddleware(log, repos.NewTenantRepo(gdb, log))
	f.router = gin.New()
	f.router.GET("/probe", scope.RequireScope(), func(c *gin.Context) {
		f.captured = requestdata.GetRequestData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return f
}

func (f *scopeFixture) probe(t *testing.T, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireScopeSetsRequestData(t *testing.T) {
	f := newScopeFixture(t)
	sessionID := uuid.New()

	w := f.probe(t, map[string]string{
		HeaderTenantID:  f.tenantID.String(),
		HeaderUserID:    f.userID.String(),
		HeaderSessionID: sessionID.String(),
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if f.captured == nil {
		t.Fatal("request data not set on context")
	}
	if f.captured.TenantID != f.tenantID || f.captured.UserID != f.userID || f.captured.SessionID != sessionID {
		t.Fatalf("request data = %+v", f.captured)
	}
}

func TestRequireScopeSessionHeaderIsOptional(t *testing.T) {
	f := newScopeFixture(t)

	w := f.probe(t, map[string]string{
		HeaderTenantID: f.tenantID.String(),
		HeaderUserID:   f.userID.String(),
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if f.captured.HasSession() {
		t.Fatalf("expected nil session, got %s", f.captured.SessionID)
	}
}

func TestRequireScopeRejectsBadHeaders(t *testing.T) {
	f := newScopeFixture(t)
	cases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing tenant", map[string]string{HeaderUserID: f.userID.String()}, http.StatusBadRequest},
		{"malformed tenant", map[string]string{HeaderTenantID: "not-a-uuid", HeaderUserID: f.userID.String()}, http.StatusBadRequest},
		{"malformed session", map[string]string{
			HeaderTenantID:  f.tenantID.String(),
			HeaderUserID:    f.userID.String(),
			HeaderSessionID: "nope",
		}, http.StatusBadRequest},
		{"unknown tenant", map[string]string{
			HeaderTenantID: uuid.NewString(),
			HeaderUserID:   f.userID.String(),
		}, http.StatusNotFound},
		{"unknown user", map[string]string{
			HeaderTenantID: f.tenantID.String(),
			HeaderUserID:   uuid.NewString(),
		}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.captured = nil
			if w := f.probe(t, tc.headers); w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body)
			}
			if f.captured != nil {
				t.Fatal("handler must not run for rejected scope")
			}
		})
	}
}
