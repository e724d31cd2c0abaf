package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session is created on first use of a (tenant, user, session id) triple.
type Session struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	Extra     datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (Session) TableName() string { return "session" }
