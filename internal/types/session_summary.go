package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionSummary holds the running summary for a session. Folded is the
// number of leading messages already folded into SummaryText, so a refresh
// only ever reads the next unfolded window, never the whole history.
type SessionSummary struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	SummaryText string    `gorm:"type:text;not null;column:summary_text" json:"summary_text"`
	Folded      int64     `gorm:"not null;default:0;column:folded" json:"folded"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (SessionSummary) TableName() string { return "session_summary" }
