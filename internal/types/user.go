package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Email     string         `gorm:"column:email" json:"email"`
	Name      string         `gorm:"column:name" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	Extra     datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (User) TableName() string { return "user" }
