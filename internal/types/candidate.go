package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Candidate is a saved candidate profile. Created only through an approved
// save_candidate action.
type Candidate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ContactInfo datatypes.JSON `gorm:"type:jsonb;column:contact_info" json:"contact_info"`
	Skills      datatypes.JSON `gorm:"type:jsonb;column:skills" json:"skills"`
	Experience  datatypes.JSON `gorm:"type:jsonb;column:experience" json:"experience"`
	Projects    datatypes.JSON `gorm:"type:jsonb;column:projects" json:"projects"`
	Education   datatypes.JSON `gorm:"type:jsonb;column:education" json:"education"`
	RawText     string         `gorm:"type:text;column:raw_text" json:"raw_text,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	Extra       datatypes.JSON `gorm:"type:jsonb;column:extra" json:"extra,omitempty"`
}

func (Candidate) TableName() string { return "candidate" }
