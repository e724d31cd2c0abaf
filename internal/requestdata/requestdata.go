package requestdata

import (
	"context"

	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

// RequestData is the explicit tenant scope for one request. Every store read
// and write derives its isolation boundary from this; there is no ambient
// tenant state anywhere else.
type RequestData struct {
	TenantID  uuid.UUID
	UserID    uuid.UUID
	SessionID uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// HasSession reports whether the request carried a session id. Some routes
// (workspace, job status) are legal without one.
func (rd *RequestData) HasSession() bool {
	return rd != nil && rd.SessionID != uuid.Nil
}
