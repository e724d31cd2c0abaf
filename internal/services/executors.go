package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

// CandidateSaver executes an approved save_candidate action. Synchronous:
// the gate calls it inside the resolution transaction, so the save and the
// confirmation flip commit or roll back together.
type CandidateSaver interface {
	Save(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, payload datatypes.JSON) (*types.Candidate, error)
}

type candidateSaver struct {
	db         *gorm.DB
	log        *logger.Logger
	candidates repos.CandidateRepo
}

func NewCandidateSaver(db *gorm.DB, baseLog *logger.Logger, candidateRepo repos.CandidateRepo) CandidateSaver {
	return &candidateSaver{
		db:         db,
		log:        baseLog.With("service", "CandidateSaver"),
		candidates: candidateRepo,
	}
}

func (s *candidateSaver) Save(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, payload datatypes.JSON) (*types.Candidate, error) {
	profile, err := decodeCandidatePayload(payload)
	if err != nil {
		return nil, err
	}
	candidate := &types.Candidate{
		TenantID: rd.TenantID,
		UserID:   rd.UserID,
		RawText:  profile.RawText,
	}
	if candidate.ContactInfo, err = marshalJSON(profile.ContactInfo); err != nil {
		return nil, err
	}
	if candidate.Skills, err = marshalJSON(profile.Skills); err != nil {
		return nil, err
	}
	if candidate.Experience, err = marshalJSON(profile.Experience); err != nil {
		return nil, err
	}
	if candidate.Projects, err = marshalJSON(profile.Projects); err != nil {
		return nil, err
	}
	if candidate.Education, err = marshalJSON(profile.Education); err != nil {
		return nil, err
	}
	saved, err := s.candidates.Create(ctx, tx, candidate)
	if err != nil {
		return nil, apierr.Execution(err)
	}
	s.log.Info("Candidate saved to workspace", "candidate_id", saved.ID, "tenant_id", rd.TenantID)
	return saved, nil
}

// RepoIngestor executes an approved ingest_repo action: crawl, then persist
// the artifact bundle atomically. Invoked from the job engine, never from
// the request path.
type RepoIngestor interface {
	Ingest(ctx context.Context, rd *requestdata.RequestData, repoURL string) (*types.Repository, error)
}

type repoIngestor struct {
	db      *gorm.DB
	log     *logger.Logger
	repoArt repos.RepositoryRepo
	crawler RepoCrawler
}

func NewRepoIngestor(db *gorm.DB, baseLog *logger.Logger, repositoryRepo repos.RepositoryRepo, crawler RepoCrawler) RepoIngestor {
	return &repoIngestor{
		db:      db,
		log:     baseLog.With("service", "RepoIngestor"),
		repoArt: repositoryRepo,
		crawler: crawler,
	}
}

func (s *repoIngestor) Ingest(ctx context.Context, rd *requestdata.RequestData, repoURL string) (*types.Repository, error) {
	artifacts, err := s.crawler.Crawl(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	repo := &types.Repository{
		TenantID:      rd.TenantID,
		UserID:        rd.UserID,
		RepoURL:       repoURL,
		NormalizedURL: NormalizeRepoURL(repoURL),
	}
	if repo.Metadata, err = marshalJSON(artifacts.Metadata); err != nil {
		return nil, err
	}
	if repo.FileMap, err = marshalJSON(artifacts.FileMap); err != nil {
		return nil, err
	}
	if repo.StackSignals, err = marshalJSON(artifacts.StackSignals); err != nil {
		return nil, err
	}
	if repo.ExtractedArtifacts, err = marshalJSON(artifacts.ExtractedArtifacts); err != nil {
		return nil, err
	}

	var saved *types.Repository
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		saved, txErr = s.repoArt.Upsert(ctx, tx, repo)
		return txErr
	})
	if err != nil {
		return nil, apierr.Execution(err)
	}
	s.log.Info("Repository ingested into workspace",
		"repository_id", saved.ID, "normalized_url", saved.NormalizedURL, "tenant_id", rd.TenantID)
	return saved, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
