package services

import (
	"context"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

// WorkspaceView is the durable tenant/user-scoped state: saved candidates
// and ingested repositories.
type WorkspaceView struct {
	Candidates   []*types.Candidate  `json:"candidates"`
	Repositories []*types.Repository `json:"repositories"`
}

type WorkspaceService interface {
	List(ctx context.Context, rd *requestdata.RequestData) (*WorkspaceView, error)
}

type workspaceService struct {
	log        *logger.Logger
	candidates repos.CandidateRepo
	repoArts   repos.RepositoryRepo
}

func NewWorkspaceService(candidateRepo repos.CandidateRepo, repositoryRepo repos.RepositoryRepo, baseLog *logger.Logger) WorkspaceService {
	return &workspaceService{
		log:        baseLog.With("service", "WorkspaceService"),
		candidates: candidateRepo,
		repoArts:   repositoryRepo,
	}
}

func (s *workspaceService) List(ctx context.Context, rd *requestdata.RequestData) (*WorkspaceView, error) {
	candidates, err := s.candidates.ListForUser(ctx, nil, rd.TenantID, rd.UserID)
	if err != nil {
		return nil, err
	}
	repositories, err := s.repoArts.ListForUser(ctx, nil, rd.TenantID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []*types.Candidate{}
	}
	if repositories == nil {
		repositories = []*types.Repository{}
	}
	return &WorkspaceView{Candidates: candidates, Repositories: repositories}, nil
}
