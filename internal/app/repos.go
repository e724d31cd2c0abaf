package app

import (
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
)

type Repos struct {
	Tenant       repos.TenantRepo
	Session      repos.SessionRepo
	Message      repos.MessageRepo
	Summary      repos.SummaryRepo
	Confirmation repos.ConfirmationRepo
	Candidate    repos.CandidateRepo
	Repository   repos.RepositoryRepo
	Job          repos.JobRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tenant:       repos.NewTenantRepo(db, log),
		Session:      repos.NewSessionRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
		Summary:      repos.NewSummaryRepo(db, log),
		Confirmation: repos.NewConfirmationRepo(db, log),
		Candidate:    repos.NewCandidateRepo(db, log),
		Repository:   repos.NewRepositoryRepo(db, log),
		Job:          repos.NewJobRepo(db, log),
	}
}
