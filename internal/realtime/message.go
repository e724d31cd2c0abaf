package realtime

type Event string

const (
	EventJobQueued           Event = "JobQueued"
	EventJobRunning          Event = "JobRunning"
	EventJobSucceeded        Event = "JobSucceeded"
	EventJobFailed           Event = "JobFailed"
	EventConfirmationPending Event = "ConfirmationPending"
	EventWorkspaceUpdated    Event = "WorkspaceUpdated"
)

// Message is the unit broadcast over the SSE hub. Channel is the
// subscriber key, currently the user ID string.
type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}
