package bus

import (
	"context"

	"github.com/talentcopilot/backend/internal/realtime"
)

// Bus fans messages out across processes. Every instance publishes
// its events to the bus and forwards incoming bus traffic into its
// local hub, so clients can subscribe to any replica.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
