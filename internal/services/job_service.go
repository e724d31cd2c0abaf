package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

type JobService interface {
	// Enqueue records a durable job row. When a job with the same
	// idempotency key already exists for the tenant the existing row is
	// returned and no new job is created. Passing tx lets callers fold
	// the insert into a larger transaction.
	Enqueue(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, kind string, payload []byte, idempotencyKey string) (*types.Job, bool, error)
	Get(ctx context.Context, rd *requestdata.RequestData, jobID uuid.UUID) (*types.Job, error)
}

type jobService struct {
	jobRepo  repos.JobRepo
	notifier Notifier
	log      *logger.Logger
}

func NewJobService(jobRepo repos.JobRepo, notifier Notifier, baseLog *logger.Logger) JobService {
	return &jobService{
		jobRepo:  jobRepo,
		notifier: notifier,
		log:      baseLog.With("service", "JobService"),
	}
}

func (s *jobService) Enqueue(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, kind string, payload []byte, idempotencyKey string) (*types.Job, bool, error) {
	if !types.KnownActionKind(kind) {
		return nil, false, apierr.Validation("unknown job kind %q", kind)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return nil, false, apierr.Validation("idempotency key required")
	}

	existing, err := s.jobRepo.GetByIdempotencyKey(ctx, tx, rd.TenantID, idempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.log.Info("Job enqueue deduplicated", "jobID", existing.ID, "idempotencyKey", idempotencyKey)
		return existing, false, nil
	}

	job := &types.Job{
		TenantID:       rd.TenantID,
		UserID:         rd.UserID,
		SessionID:      rd.SessionID,
		Kind:           kind,
		Payload:        datatypes.JSON(payload),
		Status:         types.JobQueued,
		IdempotencyKey: idempotencyKey,
	}
	created, err := s.jobRepo.Create(ctx, tx, job)
	if err != nil {
		// A concurrent enqueue with the same key can win the unique
		// index race; surface its row instead of the conflict.
		raced, lookupErr := s.jobRepo.GetByIdempotencyKey(ctx, tx, rd.TenantID, idempotencyKey)
		if lookupErr == nil && raced != nil {
			return raced, false, nil
		}
		return nil, false, err
	}

	s.notifier.JobQueued(rd.UserID, created)
	s.log.Info("Job enqueued", "jobID", created.ID, "kind", kind)
	return created, true, nil
}

func (s *jobService) Get(ctx context.Context, rd *requestdata.RequestData, jobID uuid.UUID) (*types.Job, error) {
	job, err := s.jobRepo.GetForTenant(ctx, nil, rd.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		// Jobs in other tenants must be indistinguishable from jobs
		// that never existed.
		return nil, apierr.NotFound("job %s not found", jobID)
	}
	return job, nil
}
