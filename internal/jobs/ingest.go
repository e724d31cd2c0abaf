package jobs

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
	"github.com/talentcopilot/backend/internal/types"
)

// RegisterIngestHandler wires the ingest_repo job kind to the repository
// ingestor.
func RegisterIngestHandler(reg *Registry, ingestor services.RepoIngestor) {
	reg.Register(types.ActionIngestRepo, func(ctx context.Context, rd *requestdata.RequestData, payload datatypes.JSON) ([]byte, error) {
		var p struct {
			RepoURL string `json:"repo_url"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, apierr.Validation("malformed ingest_repo payload: %v", err)
		}
		if p.RepoURL == "" {
			return nil, apierr.Validation("ingest_repo payload missing repo_url")
		}

		repo, err := ingestor.Ingest(ctx, rd, p.RepoURL)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"repository_id": repo.ID,
			"repo_url":      repo.RepoURL,
		})
	})
}
