package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type JobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error)
	GetForTenant(ctx context.Context, tx *gorm.DB, tenantID, jobID uuid.UUID) (*types.Job, error)
	GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Job, error)
	// ClaimNextRunnable picks the oldest claimable job and marks it running
	// in one transaction. Claimable: queued, or running with a heartbeat
	// older than staleRunning and attempts < maxAttempts (the restart
	// recovery path; a stuck job is requeued at most once).
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, staleRunning time.Duration) (*types.Job, error)
	Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// MarkSucceeded / MarkFailed transition out of running. Guarded on the
	// current status so a terminal job can never transition again.
	MarkSucceeded(ctx context.Context, tx *gorm.DB, id uuid.UUID, result []byte) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errDetail string) error
	// SweepTimedOut fails running jobs that exhausted their attempts and
	// stopped heartbeating. Returns the number of jobs swept.
	SweepTimedOut(ctx context.Context, tx *gorm.DB, maxAttempts int, staleRunning time.Duration) (int64, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Create(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = types.JobQueued
	}
	if err := transaction.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetForTenant(ctx context.Context, tx *gorm.DB, tenantID, jobID uuid.UUID) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.Job
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", jobID, tenantID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, key string) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if key == "" {
		return nil, nil
	}
	var job types.Job
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, staleRunning time.Duration) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.Job
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.Job
		q := txx.Where(`
			(
				status = ?
				OR (
					status = ?
					AND heartbeat_at IS NOT NULL
					AND heartbeat_at < ?
					AND attempts < ?
				)
			)
		`, types.JobQueued, types.JobRunning, staleCutoff, maxAttempts).
			Order("created_at ASC")
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		updates := map[string]interface{}{
			"status":       types.JobRunning,
			"attempts":     job.Attempts + 1,
			"heartbeat_at": &now,
			"updated_at":   now,
		}
		if job.StartedAt == nil {
			updates["started_at"] = &now
		}
		if err := txx.Model(&types.Job{}).
			Where("id = ?", job.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		job.Status = types.JobRunning
		job.Attempts = job.Attempts + 1
		job.HeartbeatAt = &now
		if job.StartedAt == nil {
			job.StartedAt = &now
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ? AND status = ?", id, types.JobRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": &now,
			"updated_at":   now,
		}).Error
}

func (r *jobRepo) MarkSucceeded(ctx context.Context, tx *gorm.DB, id uuid.UUID, result []byte) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ? AND status = ?", id, types.JobRunning).
		Updates(map[string]interface{}{
			"status":       types.JobSucceeded,
			"result":       result,
			"completed_at": &now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("job not running, refusing transition to succeeded")
	}
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errDetail string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("id = ? AND status IN ?", id, []string{types.JobQueued, types.JobRunning}).
		Updates(map[string]interface{}{
			"status":       types.JobFailed,
			"error":        errDetail,
			"completed_at": &now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("job already terminal, refusing transition to failed")
	}
	return nil
}

func (r *jobRepo) SweepTimedOut(ctx context.Context, tx *gorm.DB, maxAttempts int, staleRunning time.Duration) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	staleCutoff := now.Add(-staleRunning)
	res := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("status = ? AND heartbeat_at IS NOT NULL AND heartbeat_at < ? AND attempts >= ?",
			types.JobRunning, staleCutoff, maxAttempts).
		Updates(map[string]interface{}{
			"status":       types.JobFailed,
			"error":        "execution timed out: worker stopped heartbeating",
			"completed_at": &now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
