package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job is one asynchronous action execution. queued -> running -> succeeded
// or failed; terminal states are final, re-running means a new row. The
// idempotency key dedupes retried enqueues within a tenant.
type Job struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:ux_job_tenant_idem,priority:1" json:"tenant_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Kind           string         `gorm:"not null;index;column:kind" json:"kind"`
	Payload        datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	Status         string         `gorm:"not null;index;column:status" json:"status"`
	Result         datatypes.JSON `gorm:"type:jsonb;column:result" json:"result,omitempty"`
	Error          string         `gorm:"type:text;column:error" json:"error,omitempty"`
	Attempts       int            `gorm:"not null;default:0;column:attempts" json:"attempts"`
	IdempotencyKey string         `gorm:"not null;column:idempotency_key;uniqueIndex:ux_job_tenant_idem,priority:2" json:"idempotency_key"`
	HeartbeatAt    *time.Time     `gorm:"index;column:heartbeat_at" json:"heartbeat_at,omitempty"`
	StartedAt      *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Job) TableName() string { return "job" }

func JobTerminal(status string) bool {
	return status == JobSucceeded || status == JobFailed
}
