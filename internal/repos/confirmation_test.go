package repos

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/talentcopilot/backend/internal/types"
)

func TestConfirmationCreatePending_SetsIdempotencyKeyAndStatus(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb)
	repo := NewConfirmationRepo(gdb, testLogger())
	ctx := context.Background()

	conf, err := repo.CreatePending(ctx, nil, scope.TenantID, scope.UserID, scope.SessionID,
		types.ActionIngestRepo, datatypes.JSON(`{"repo_url":"https://github.com/a/b"}`),
		"Would you like me to crawl this repository: https://github.com/a/b ? (yes/no)")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if conf.Status != types.ConfirmationPending {
		t.Fatalf("expected pending status, got %q", conf.Status)
	}
	if conf.IdempotencyKey == "" {
		t.Fatalf("expected idempotency key to be generated")
	}
	if conf.Prompt == "" {
		t.Fatalf("expected stored prompt text")
	}
}

func TestConfirmationGetPendingForSession_ScopedByTenantAndSession(t *testing.T) {
	gdb := newTestDB(t)
	scopeA := seedScope(t, gdb)
	scopeB := seedScope(t, gdb)
	repo := NewConfirmationRepo(gdb, testLogger())
	ctx := context.Background()

	created, err := repo.CreatePending(ctx, nil, scopeA.TenantID, scopeA.UserID, scopeA.SessionID,
		types.ActionSaveCandidate, datatypes.JSON(`{}`), "Do you want me to save this candidate profile to the workspace? (yes/no)")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	got, err := repo.GetPendingForSession(ctx, nil, scopeA.TenantID, scopeA.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected pending confirmation for own session")
	}

	other, err := repo.GetPendingForSession(ctx, nil, scopeB.TenantID, scopeB.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if other != nil {
		t.Fatalf("expected no pending confirmation in other scope")
	}
}

func TestConfirmationResolve_GuardsAgainstDoubleResolution(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb)
	repo := NewConfirmationRepo(gdb, testLogger())
	ctx := context.Background()

	conf, err := repo.CreatePending(ctx, nil, scope.TenantID, scope.UserID, scope.SessionID,
		types.ActionIngestRepo, datatypes.JSON(`{"repo_url":"https://github.com/a/b"}`), "prompt")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	ok, err := repo.Resolve(ctx, nil, scope.TenantID, conf.ID, types.ConfirmationApproved)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !ok {
		t.Fatalf("expected first resolve to win")
	}

	ok, err = repo.Resolve(ctx, nil, scope.TenantID, conf.ID, types.ConfirmationDenied)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if ok {
		t.Fatalf("expected second resolve to be rejected")
	}

	pending, err := repo.GetPendingForSession(ctx, nil, scope.TenantID, scope.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected no pending confirmation after resolution")
	}
}
