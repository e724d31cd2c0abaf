package app

import (
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/jobs"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/realtime/bus"
	"github.com/talentcopilot/backend/internal/services"
)

type Services struct {
	Agent     services.AgentClient
	Memory    services.MemoryService
	Gate      services.GateService
	Jobs      services.JobService
	Workspace services.WorkspaceService
	Parser    services.ProfileParser
	Notifier  services.Notifier

	JobWorker *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, sseBus bus.Bus) (Services, error) {
	log.Info("Wiring services...")

	notifier := services.NewNotifier(sseBus, log)

	agent, err := services.NewAgentClient(log)
	if err != nil {
		return Services{}, err
	}

	memory := services.NewMemoryService(
		db, log,
		reposet.Message, reposet.Summary, reposet.Candidate, reposet.Repository,
		agent,
		cfg.MemoryWindowSize, cfg.SummaryTriggerFactor,
	)

	jobService := services.NewJobService(reposet.Job, notifier, log)
	saver := services.NewCandidateSaver(db, log, reposet.Candidate)
	crawler := services.NewGithubCrawler(log)
	ingestor := services.NewRepoIngestor(db, log, reposet.Repository, crawler)

	gate := services.NewGateService(
		db, log,
		reposet.Session, reposet.Message, reposet.Confirmation,
		memory, agent, jobService, saver, notifier,
		cfg.ConfirmationTTL,
	)

	registry := jobs.NewRegistry()
	jobs.RegisterIngestHandler(registry, ingestor)
	worker := jobs.NewWorker(jobs.Config{
		Workers:      cfg.JobWorkers,
		PollInterval: cfg.JobPollInterval,
		ExecTimeout:  cfg.JobExecTimeout,
		HeartbeatTTL: cfg.JobHeartbeatTTL,
		MaxAttempts:  cfg.JobMaxAttempts,
	}, reposet.Job, registry, notifier, log)

	return Services{
		Agent:     agent,
		Memory:    memory,
		Gate:      gate,
		Jobs:      jobService,
		Workspace: services.NewWorkspaceService(reposet.Candidate, reposet.Repository, log),
		Parser:    services.NewHeuristicParser(log),
		Notifier:  notifier,
		JobWorker: worker,
	}, nil
}
