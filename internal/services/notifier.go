package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/realtime"
	"github.com/talentcopilot/backend/internal/realtime/bus"
	"github.com/talentcopilot/backend/internal/types"
)

type Notifier interface {
	JobQueued(userID uuid.UUID, job *types.Job)
	JobRunning(userID uuid.UUID, job *types.Job)
	JobSucceeded(userID uuid.UUID, job *types.Job)
	JobFailed(userID uuid.UUID, job *types.Job)
	ConfirmationPending(userID uuid.UUID, conf *types.Confirmation)
	WorkspaceUpdated(userID uuid.UUID, kind string)
}

type busNotifier struct {
	bus bus.Bus
	log *logger.Logger
}

func NewNotifier(b bus.Bus, baseLog *logger.Logger) Notifier {
	return &busNotifier{bus: b, log: baseLog.With("service", "Notifier")}
}

func (n *busNotifier) publish(userID uuid.UUID, event realtime.Event, data any) {
	msg := realtime.Message{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	}
	if err := n.bus.Publish(context.Background(), msg); err != nil {
		n.log.Warn("Failed to publish SSE message", "event", event, "error", err)
	}
}

func (n *busNotifier) JobQueued(userID uuid.UUID, job *types.Job) {
	n.publish(userID, realtime.EventJobQueued, map[string]any{"job": job})
}

func (n *busNotifier) JobRunning(userID uuid.UUID, job *types.Job) {
	n.publish(userID, realtime.EventJobRunning, map[string]any{
		"job_id": job.ID,
		"kind":   job.Kind,
		"job":    job,
	})
}

func (n *busNotifier) JobSucceeded(userID uuid.UUID, job *types.Job) {
	n.publish(userID, realtime.EventJobSucceeded, map[string]any{
		"job_id": job.ID,
		"kind":   job.Kind,
		"job":    job,
	})
}

func (n *busNotifier) JobFailed(userID uuid.UUID, job *types.Job) {
	n.publish(userID, realtime.EventJobFailed, map[string]any{
		"job_id": job.ID,
		"kind":   job.Kind,
		"error":  job.Error,
		"job":    job,
	})
}

func (n *busNotifier) ConfirmationPending(userID uuid.UUID, conf *types.Confirmation) {
	n.publish(userID, realtime.EventConfirmationPending, map[string]any{
		"confirmation_id": conf.ID,
		"action_kind":     conf.ActionKind,
		"prompt":          conf.Prompt,
	})
}

func (n *busNotifier) WorkspaceUpdated(userID uuid.UUID, kind string) {
	n.publish(userID, realtime.EventWorkspaceUpdated, map[string]any{"kind": kind})
}

// NopNotifier discards all events. Used by tests and by code paths
// that run before the bus is wired.
type NopNotifier struct{}

func (NopNotifier) JobQueued(uuid.UUID, *types.Job)                    {}
func (NopNotifier) JobRunning(uuid.UUID, *types.Job)                   {}
func (NopNotifier) JobSucceeded(uuid.UUID, *types.Job)                 {}
func (NopNotifier) JobFailed(uuid.UUID, *types.Job)                    {}
func (NopNotifier) ConfirmationPending(uuid.UUID, *types.Confirmation) {}
func (NopNotifier) WorkspaceUpdated(uuid.UUID, string)                 {}
