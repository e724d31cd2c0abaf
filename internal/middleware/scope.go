package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/handlers"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
)

const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// ScopeMiddleware turns the tenant headers into the RequestData every store
// access keys off. Tenant and user must resolve to real rows; the session id
// is optional here because sessions are created on first use by the chat
// path, and some routes are legal without one.
type ScopeMiddleware struct {
	log     *logger.Logger
	tenants repos.TenantRepo
}

func NewScopeMiddleware(log *logger.Logger, tenantRepo repos.TenantRepo) *ScopeMiddleware {
	return &ScopeMiddleware{
		log:     log.With("middleware", "Scope"),
		tenants: tenantRepo,
	}
}

func (m *ScopeMiddleware) RequireScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := parseHeaderUUID(c, HeaderTenantID)
		if err != nil {
			abortScope(c, err)
			return
		}
		userID, err := parseHeaderUUID(c, HeaderUserID)
		if err != nil {
			abortScope(c, err)
			return
		}

		var sessionID uuid.UUID
		if raw := strings.TrimSpace(c.GetHeader(HeaderSessionID)); raw != "" {
			sessionID, err = uuid.Parse(raw)
			if err != nil {
				abortScope(c, err)
				return
			}
		}

		ctx := c.Request.Context()
		tenant, err := m.tenants.Get(ctx, nil, tenantID)
		if err != nil {
			handlers.RespondAppError(c, err)
			c.Abort()
			return
		}
		if tenant == nil {
			handlers.RespondError(c, http.StatusNotFound, "unknown_tenant", errUnknownScope)
			c.Abort()
			return
		}
		user, err := m.tenants.GetUser(ctx, nil, tenantID, userID)
		if err != nil {
			handlers.RespondAppError(c, err)
			c.Abort()
			return
		}
		if user == nil {
			handlers.RespondError(c, http.StatusNotFound, "unknown_user", errUnknownScope)
			c.Abort()
			return
		}

		rd := &requestdata.RequestData{
			TenantID:  tenantID,
			UserID:    userID,
			SessionID: sessionID,
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(ctx, rd))
		c.Next()
	}
}

var errUnknownScope = &scopeError{"tenant/user scope could not be resolved"}

type scopeError struct{ msg string }

func (e *scopeError) Error() string { return e.msg }

func parseHeaderUUID(c *gin.Context, header string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(header))
	if raw == "" {
		return uuid.Nil, &scopeError{"missing " + header + " header"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &scopeError{"invalid " + header + " header"}
	}
	return id, nil
}

func abortScope(c *gin.Context, err error) {
	handlers.RespondError(c, http.StatusBadRequest, "invalid_scope", err)
	c.Abort()
}
