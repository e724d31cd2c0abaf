package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Action kinds are a closed set; unknown kinds are rejected at the boundary.
const (
	ActionIngestRepo    = "ingest_repo"
	ActionSaveCandidate = "save_candidate"
)

const (
	ConfirmationPending  = "pending"
	ConfirmationApproved = "approved"
	ConfirmationDenied   = "denied"
	ConfirmationExpired  = "expired"
)

// Confirmation is a session-bound action proposal awaiting yes/no. At most
// one pending row may exist per session (partial unique index, see db).
// Prompt keeps the literal confirmation text so an ambiguous turn re-issues
// exactly what the user was asked.
type Confirmation struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	ActionKind     string         `gorm:"not null;column:action_kind" json:"action_kind"`
	Payload        datatypes.JSON `gorm:"type:jsonb;not null;column:payload" json:"payload"`
	Status         string         `gorm:"not null;index;column:status" json:"status"`
	IdempotencyKey string         `gorm:"not null;column:idempotency_key" json:"idempotency_key"`
	Prompt         string         `gorm:"type:text;not null;column:prompt" json:"prompt"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	ResolvedAt     *time.Time     `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	Extra          datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (Confirmation) TableName() string { return "confirmation" }

func KnownActionKind(kind string) bool {
	return kind == ActionIngestRepo || kind == ActionSaveCandidate
}
