package jobs

import (
	"context"

	"gorm.io/datatypes"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/requestdata"
)

// Handler executes one claimed job. The returned bytes are persisted as the
// job result. Handlers run off the request path and must honor ctx, which
// carries the execution timeout.
type Handler func(ctx context.Context, rd *requestdata.RequestData, payload datatypes.JSON) ([]byte, error)

// Registry maps job kind to handler. It is populated once during wiring and
// read-only afterwards, so no locking.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

func (r *Registry) Resolve(kind string) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, apierr.Validation("no handler registered for job kind %q", kind)
	}
	return h, nil
}
