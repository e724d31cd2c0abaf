package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is immutable once written. Seq is strictly increasing and gap-free
// within a session; the unique index makes a lost or duplicated write visible.
type Message struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:ux_message_session_seq,priority:1" json:"session_id"`
	Seq       int64          `gorm:"not null;column:seq;uniqueIndex:ux_message_session_seq,priority:2" json:"seq"`
	Role      string         `gorm:"not null;column:role" json:"role"`
	Content   string         `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	Extra     datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (Message) TableName() string { return "message" }
