package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/types"
)

const testRepoURL = "https://github.com/acme/billing-service"

func ingestProposal(repoURL string) *TurnProposal {
	return &TurnProposal{Action: &ActionProposal{
		Kind:       types.ActionIngestRepo,
		IngestRepo: &IngestRepoPayload{RepoURL: repoURL},
	}}
}

func saveCandidateProposal() *TurnProposal {
	return &TurnProposal{Action: &ActionProposal{
		Kind: types.ActionSaveCandidate,
		SaveCandidate: &CandidateProfile{
			ContactInfo: map[string]string{"email": "jane@example.com"},
			Skills:      []string{"Go", "Postgres"},
		},
	}}
}

func TestHandleTurnDirectReply(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		{Reply: "Here are three interview questions for a Go backend role."},
	}}, time.Hour)

	result, err := f.gate.HandleTurn(ctx, f.rd, "Suggest interview questions")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if result.Pending {
		t.Fatal("direct reply must not be pending")
	}
	if result.Reply != "Here are three interview questions for a Go backend role." {
		t.Fatalf("unexpected reply %q", result.Reply)
	}

	recent, err := f.messages.GetRecent(ctx, nil, f.rd.TenantID, f.rd.SessionID, 10)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(recent))
	}
	if recent[0].Role != types.RoleUser || recent[1].Role != types.RoleAssistant {
		t.Fatalf("unexpected roles %q/%q", recent[0].Role, recent[1].Role)
	}
}

func TestHandleTurnIngestProposalCreatesPending(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	result, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !result.Pending {
		t.Fatal("expected pending result")
	}
	if want := IngestPrompt(testRepoURL); result.Reply != want {
		t.Fatalf("reply = %q, want %q", result.Reply, want)
	}
	if result.ConfirmationID == nil {
		t.Fatal("expected confirmation id")
	}
	if result.JobID != nil || f.jobCount(t) != 0 {
		t.Fatal("no job may exist before approval")
	}

	pending, err := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending == nil || pending.ID != *result.ConfirmationID {
		t.Fatal("pending confirmation not persisted")
	}
	if pending.ActionKind != types.ActionIngestRepo {
		t.Fatalf("action kind = %q", pending.ActionKind)
	}
}

func TestHandleTurnUndecidedReissuesPrompt(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	first, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := f.gate.HandleTurn(ctx, f.rd, "hmm, maybe")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if !second.Pending {
		t.Fatal("undecided turn must keep the confirmation pending")
	}
	if second.Reply != first.Reply {
		t.Fatalf("prompt must be re-issued verbatim: %q vs %q", second.Reply, first.Reply)
	}
	if *second.ConfirmationID != *first.ConfirmationID {
		t.Fatal("undecided turn must not mint a new confirmation")
	}
	if f.agent.proposals != 1 {
		t.Fatalf("agent called %d times, want 1", f.agent.proposals)
	}
	if f.jobCount(t) != 0 {
		t.Fatal("undecided turn must not enqueue a job")
	}
}

func TestHandleTurnApproveIngestEnqueuesJob(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	proposed, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL)
	if err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	pending, err := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if err != nil || pending == nil {
		t.Fatalf("get pending: %v", err)
	}

	approved, err := f.gate.HandleTurn(ctx, f.rd, "yes please")
	if err != nil {
		t.Fatalf("approve turn: %v", err)
	}
	if !approved.ActionDispatched || approved.JobID == nil {
		t.Fatal("approval must dispatch the action and return a job id")
	}
	if want := fmt.Sprintf("Ingestion job started. Job ID: %s", *approved.JobID); approved.Reply != want {
		t.Fatalf("reply = %q, want %q", approved.Reply, want)
	}
	if *approved.ConfirmationID != *proposed.ConfirmationID {
		t.Fatal("approval must resolve the proposed confirmation")
	}

	job, err := f.jobs.GetForTenant(ctx, nil, f.rd.TenantID, *approved.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job == nil || job.Status != types.JobQueued {
		t.Fatalf("expected queued job, got %+v", job)
	}
	if job.Kind != types.ActionIngestRepo {
		t.Fatalf("job kind = %q", job.Kind)
	}
	if job.IdempotencyKey != pending.IdempotencyKey {
		t.Fatalf("job must reuse the confirmation idempotency key: %q vs %q", job.IdempotencyKey, pending.IdempotencyKey)
	}
	if string(job.Payload) != string(pending.Payload) {
		t.Fatalf("job payload must be the stored proposal payload: %s vs %s", job.Payload, pending.Payload)
	}

	stillPending, err := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if err != nil {
		t.Fatalf("get pending after approve: %v", err)
	}
	if stillPending != nil {
		t.Fatal("confirmation must leave pending on approval")
	}
}

func TestHandleTurnDenyLeavesNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	if _, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL); err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	denied, err := f.gate.HandleTurn(ctx, f.rd, "no")
	if err != nil {
		t.Fatalf("deny turn: %v", err)
	}
	if denied.Reply != DeniedAcknowledgement {
		t.Fatalf("reply = %q", denied.Reply)
	}
	if denied.Pending || denied.ActionDispatched {
		t.Fatal("denied turn must not stay pending or dispatch")
	}
	if f.jobCount(t) != 0 {
		t.Fatal("denial must not enqueue a job")
	}
	pending, err := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending != nil {
		t.Fatal("confirmation must be resolved after denial")
	}
}

func TestHandleTurnApproveSaveCandidateWritesRow(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		saveCandidateProposal(),
	}}, time.Hour)

	proposed, err := f.gate.HandleTurn(ctx, f.rd, "Save that candidate")
	if err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	if proposed.Reply != SaveCandidatePrompt {
		t.Fatalf("reply = %q", proposed.Reply)
	}

	approved, err := f.gate.HandleTurn(ctx, f.rd, "yes")
	if err != nil {
		t.Fatalf("approve turn: %v", err)
	}
	if approved.Reply != "Candidate profile saved to workspace." {
		t.Fatalf("reply = %q", approved.Reply)
	}
	if approved.JobID != nil || f.jobCount(t) != 0 {
		t.Fatal("save_candidate is synchronous, no job may exist")
	}

	saved, err := f.candidates.ListForUser(ctx, nil, f.rd.TenantID, f.rd.UserID)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected one candidate row, got %d", len(saved))
	}
}

func TestHandleTurnExpiredPendingGoesBackToAgent(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
		{Reply: "Happy to help with something else."},
	}}, time.Nanosecond)

	if _, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL); err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	// The TTL has long passed by the next turn, so "yes" is a fresh
	// message, not an approval.
	result, err := f.gate.HandleTurn(ctx, f.rd, "yes")
	if err != nil {
		t.Fatalf("post-expiry turn: %v", err)
	}
	if result.Pending || result.ActionDispatched {
		t.Fatal("expired confirmation must not be approvable")
	}
	if result.Reply != "Happy to help with something else." {
		t.Fatalf("reply = %q", result.Reply)
	}
	if f.jobCount(t) != 0 {
		t.Fatal("expired confirmation must not enqueue a job")
	}
	pending, err := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if pending != nil {
		t.Fatal("expired confirmation must be cleared")
	}
}

func TestHandleTurnAgentFailureRecordsFailureReply(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{failWith: errors.New("upstream unavailable")}, time.Hour)

	if _, err := f.gate.HandleTurn(ctx, f.rd, "hello"); err == nil {
		t.Fatal("expected turn error")
	}
	if got := f.lastMessage(t); got.Role != types.RoleAssistant || got.Content != failureReply {
		t.Fatalf("last message = %q/%q", got.Role, got.Content)
	}
}

func TestResolveApprovesAndAppendsReply(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	proposed, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL)
	if err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	result, err := f.gate.Resolve(ctx, f.rd, *proposed.ConfirmationID, "yes")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.ActionDispatched || result.JobID == nil {
		t.Fatal("explicit approval must dispatch the action")
	}
	if got := f.lastMessage(t); got.Role != types.RoleAssistant || got.Content != result.Reply {
		t.Fatalf("resolution reply not recorded, last message = %q/%q", got.Role, got.Content)
	}
}

func TestResolveUndecidedIsValidationError(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	proposed, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL)
	if err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	_, err = f.gate.Resolve(ctx, f.rd, *proposed.ConfirmationID, "perhaps")
	if !apierr.Is(err, apierr.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	pending, getErr := f.confirmations.GetPendingForSession(ctx, nil, f.rd.TenantID, f.rd.SessionID)
	if getErr != nil || pending == nil {
		t.Fatalf("confirmation must stay pending after rejected decision (err=%v)", getErr)
	}
}

func TestResolveUnknownConfirmationIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{script: []*TurnProposal{
		ingestProposal(testRepoURL),
	}}, time.Hour)

	if _, err := f.gate.HandleTurn(ctx, f.rd, "Ingest "+testRepoURL); err != nil {
		t.Fatalf("propose turn: %v", err)
	}
	_, err := f.gate.Resolve(ctx, f.rd, uuid.New(), "yes")
	if !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProposeActionConflictsWithExistingPending(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{}, time.Hour)

	first, err := f.gate.ProposeAction(ctx, f.rd, saveCandidateProposal().Action)
	if err != nil {
		t.Fatalf("ProposeAction: %v", err)
	}
	if !first.Pending || first.Reply != SaveCandidatePrompt {
		t.Fatalf("unexpected proposal result %+v", first)
	}
	_, err = f.gate.ProposeAction(ctx, f.rd, ingestProposal(testRepoURL).Action)
	if !apierr.Is(err, apierr.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConcurrentProposalsKeepOnePending(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{}, time.Hour)

	const attempts = 4
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := f.gate.ProposeAction(ctx, f.rd, saveCandidateProposal().Action)
			results <- err
		}()
	}

	var succeeded, conflicted int
	for i := 0; i < attempts; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case apierr.Is(err, apierr.CodeConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != attempts-1 {
		t.Fatalf("succeeded = %d, conflicted = %d", succeeded, conflicted)
	}

	var pendingCount int64
	if err := f.db.Model(&types.Confirmation{}).
		Where("status = ?", types.ConfirmationPending).
		Count(&pendingCount).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pendingCount != 1 {
		t.Fatalf("pending confirmations = %d, want 1", pendingCount)
	}
}

func TestGateRequiresSession(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t, &fakeAgent{}, time.Hour)
	f.rd.SessionID = uuid.Nil

	if _, err := f.gate.HandleTurn(ctx, f.rd, "hello"); !apierr.Is(err, apierr.CodeValidation) {
		t.Fatalf("HandleTurn without session: %v", err)
	}
	if _, err := f.gate.Resolve(ctx, f.rd, uuid.Nil, "yes"); !apierr.Is(err, apierr.CodeValidation) {
		t.Fatalf("Resolve without session: %v", err)
	}
}
