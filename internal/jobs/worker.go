package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/services"
	"github.com/talentcopilot/backend/internal/types"
)

// Config sizes the worker pool independently from the request path.
type Config struct {
	Workers      int
	PollInterval time.Duration
	ExecTimeout  time.Duration
	HeartbeatTTL time.Duration
	MaxAttempts  int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = 5 * time.Minute
	}
	if c.HeartbeatTTL <= 0 {
		c.HeartbeatTTL = 2 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	return c
}

// Worker drains the durable job queue: claim, execute under the exec
// timeout, persist the outcome. Claims go through FOR UPDATE SKIP LOCKED so
// replicas and pool members never double-run a live job.
type Worker struct {
	cfg      Config
	log      *logger.Logger
	jobRepo  repos.JobRepo
	registry *Registry
	notifier services.Notifier
}

func NewWorker(cfg Config, jobRepo repos.JobRepo, registry *Registry, notifier services.Notifier, baseLog *logger.Logger) *Worker {
	return &Worker{
		cfg:      cfg.withDefaults(),
		log:      baseLog.With("component", "JobWorker"),
		jobRepo:  jobRepo,
		registry: registry,
		notifier: notifier,
	}
}

// Run blocks until ctx is canceled. It starts cfg.Workers claim loops plus
// one sweeper under a single errgroup.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < w.cfg.Workers; i++ {
		workerID := i
		g.Go(func() error {
			return w.claimLoop(gctx, workerID)
		})
	}
	g.Go(func() error {
		return w.sweepLoop(gctx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Worker) claimLoop(ctx context.Context, workerID int) error {
	log := w.log.With("workerID", workerID)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		job, err := w.jobRepo.ClaimNextRunnable(ctx, nil, w.cfg.MaxAttempts, w.cfg.HeartbeatTTL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Claim failed", "error", err)
		}
		if job != nil {
			w.execute(ctx, log, job)
			// Keep draining while work is available.
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) execute(ctx context.Context, log *logger.Logger, job *types.Job) {
	log.Info("Job claimed", "jobID", job.ID, "kind", job.Kind, "attempt", job.Attempts)
	w.notifier.JobRunning(job.UserID, job)

	rd := &requestdata.RequestData{
		TenantID:  job.TenantID,
		UserID:    job.UserID,
		SessionID: job.SessionID,
	}

	execCtx, cancel := context.WithTimeout(ctx, w.cfg.ExecTimeout)
	defer cancel()

	// Keep the heartbeat fresh while the handler runs so a live job is
	// never mistaken for a crashed one.
	hbDone := make(chan struct{})
	go func() {
		interval := w.cfg.HeartbeatTTL / 4
		if interval < time.Second {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hbDone:
				return
			case <-execCtx.Done():
				return
			case <-ticker.C:
				if err := w.jobRepo.Heartbeat(execCtx, nil, job.ID); err != nil {
					log.Warn("Heartbeat failed", "jobID", job.ID, "error", err)
				}
			}
		}
	}()

	result, execErr := w.runHandler(execCtx, rd, job)
	close(hbDone)

	if execErr != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			execErr = fmt.Errorf("execution timed out after %s", w.cfg.ExecTimeout)
		}
		w.fail(ctx, log, job, execErr)
		return
	}

	if err := w.jobRepo.MarkSucceeded(ctx, nil, job.ID, result); err != nil {
		log.Error("Failed to mark job succeeded", "jobID", job.ID, "error", err)
		return
	}
	job.Status = types.JobSucceeded
	w.notifier.JobSucceeded(job.UserID, job)
	if job.Kind == types.ActionIngestRepo {
		w.notifier.WorkspaceUpdated(job.UserID, "repository")
	}
	log.Info("Job succeeded", "jobID", job.ID, "kind", job.Kind)
}

// runHandler isolates handler panics so a bad job cannot take the pool
// down.
func (w *Worker) runHandler(ctx context.Context, rd *requestdata.RequestData, job *types.Job) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panicked", "jobID", job.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	handler, err := w.registry.Resolve(job.Kind)
	if err != nil {
		return nil, err
	}
	return handler(ctx, rd, job.Payload)
}

func (w *Worker) fail(ctx context.Context, log *logger.Logger, job *types.Job, execErr error) {
	log.Warn("Job failed", "jobID", job.ID, "kind", job.Kind, "error", execErr)
	if err := w.jobRepo.MarkFailed(ctx, nil, job.ID, execErr.Error()); err != nil {
		log.Error("Failed to mark job failed", "jobID", job.ID, "error", err)
		return
	}
	job.Status = types.JobFailed
	job.Error = execErr.Error()
	w.notifier.JobFailed(job.UserID, job)
}

// sweepLoop fails running jobs whose worker died after exhausting their
// attempts; jobs with attempts remaining are picked back up by the claim
// loops instead.
func (w *Worker) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.HeartbeatTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			swept, err := w.jobRepo.SweepTimedOut(ctx, nil, w.cfg.MaxAttempts, w.cfg.HeartbeatTTL)
			if err != nil {
				w.log.Error("Sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				w.log.Warn("Swept timed out jobs", "count", swept)
			}
		}
	}
}
