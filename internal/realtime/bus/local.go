package bus

import (
	"context"
	"sync"

	"github.com/talentcopilot/backend/internal/realtime"
)

// localBus is the single-process fallback used when REDIS_ADDR is not
// configured. Publish hands the message straight to the forwarder.
type localBus struct {
	mu    sync.RWMutex
	onMsg func(m realtime.Message)
}

func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(_ context.Context, msg realtime.Message) error {
	b.mu.RLock()
	onMsg := b.onMsg
	b.mu.RUnlock()
	if onMsg != nil {
		onMsg(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onMsg func(m realtime.Message)) error {
	b.mu.Lock()
	b.onMsg = onMsg
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error { return nil }
