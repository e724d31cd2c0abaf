package app

import (
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/middleware"
)

type Middleware struct {
	Scope *middleware.ScopeMiddleware
}

func wireMiddleware(log *logger.Logger, reposet Repos) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Scope: middleware.NewScopeMiddleware(log, reposet.Tenant),
	}
}
