package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Repository is a saved set of ingested repository artifacts. Created only
// through a successful ingest_repo job; re-ingesting the same normalized URL
// overwrites the artifact set as one unit.
type Repository struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	RepoURL            string         `gorm:"size:1024;not null;column:repo_url" json:"repo_url"`
	NormalizedURL      string         `gorm:"size:1024;not null;index;column:normalized_url" json:"normalized_url"`
	Metadata           datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	FileMap            datatypes.JSON `gorm:"type:jsonb;column:file_map" json:"file_map"`
	StackSignals       datatypes.JSON `gorm:"type:jsonb;column:stack_signals" json:"stack_signals"`
	ExtractedArtifacts datatypes.JSON `gorm:"type:jsonb;column:extracted_artifacts" json:"extracted_artifacts"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
}

func (Repository) TableName() string { return "repository" }
