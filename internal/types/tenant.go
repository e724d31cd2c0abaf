package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	Extra     datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (Tenant) TableName() string { return "tenant" }
