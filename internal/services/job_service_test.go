package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

func newJobService(t *testing.T) (JobService, *requestdata.RequestData) {
	t.Helper()
	gdb := newTestDB(t)
	rd := seedRequestData(t, gdb)
	return NewJobService(repos.NewJobRepo(gdb, logger.NewNop()), NopNotifier{}, logger.NewNop()), rd
}

func TestEnqueueDedupesOnIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	svc, rd := newJobService(t)
	payload := []byte(`{"repo_url":"https://github.com/acme/billing-service"}`)

	first, created, err := svc.Enqueue(ctx, nil, rd, types.ActionIngestRepo, payload, "key-1")
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if !created {
		t.Fatal("first enqueue must create the job")
	}
	if first.Status != types.JobQueued {
		t.Fatalf("status = %q", first.Status)
	}

	second, created, err := svc.Enqueue(ctx, nil, rd, types.ActionIngestRepo, payload, "key-1")
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if created {
		t.Fatal("duplicate key must not create a new job")
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate enqueue returned %s, want %s", second.ID, first.ID)
	}
}

func TestEnqueueValidatesKindAndKey(t *testing.T) {
	ctx := context.Background()
	svc, rd := newJobService(t)

	if _, _, err := svc.Enqueue(ctx, nil, rd, "teleport", []byte(`{}`), "key-1"); !apierr.Is(err, apierr.CodeValidation) {
		t.Fatalf("unknown kind: %v", err)
	}
	if _, _, err := svc.Enqueue(ctx, nil, rd, types.ActionIngestRepo, []byte(`{}`), "   "); !apierr.Is(err, apierr.CodeValidation) {
		t.Fatalf("blank key: %v", err)
	}
}

func TestGetCollapsesCrossTenantToNotFound(t *testing.T) {
	ctx := context.Background()
	svc, rd := newJobService(t)

	job, _, err := svc.Enqueue(ctx, nil, rd, types.ActionIngestRepo, []byte(`{}`), "key-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := svc.Get(ctx, rd, job.ID)
	if err != nil {
		t.Fatalf("same-tenant get: %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("got job %s", got.ID)
	}

	other := &requestdata.RequestData{TenantID: uuid.New(), UserID: rd.UserID, SessionID: rd.SessionID}
	if _, err := svc.Get(ctx, other, job.ID); !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("cross-tenant get must be NotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, rd, uuid.New()); !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("absent job must be NotFound, got %v", err)
	}
}
