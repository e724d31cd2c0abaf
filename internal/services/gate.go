package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/apierr"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

const failureReply = "Sorry, I ran into a problem handling that. Please try again."

// TurnResult is what a chat turn or confirmation resolution hands back to
// the transport layer.
type TurnResult struct {
	Reply            string     `json:"reply"`
	Pending          bool       `json:"pending"`
	ConfirmationID   *uuid.UUID `json:"confirmation_id,omitempty"`
	ActionDispatched bool       `json:"action_dispatched,omitempty"`
	JobID            *uuid.UUID `json:"job_id,omitempty"`
}

// GateService owns the turn state machine: no side-effecting action runs
// without an explicit approval bound to the exact proposal that produced
// the prompt.
type GateService interface {
	HandleTurn(ctx context.Context, rd *requestdata.RequestData, message string) (*TurnResult, error)
	// Resolve is the explicit /confirm surface. The decision text goes
	// through the same classifier as a chat turn; an undecided decision
	// is a validation error rather than a silent no-op.
	Resolve(ctx context.Context, rd *requestdata.RequestData, confirmationID uuid.UUID, decision string) (*TurnResult, error)
	// ProposeAction persists a pending confirmation for an
	// already-validated proposal (the upload path) and returns its prompt.
	ProposeAction(ctx context.Context, rd *requestdata.RequestData, proposal *ActionProposal) (*TurnResult, error)
}

type gateService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessions      repos.SessionRepo
	messages      repos.MessageRepo
	confirmations repos.ConfirmationRepo
	memory        MemoryService
	agent         AgentClient
	jobs          JobService
	saver         CandidateSaver
	notifier      Notifier
	locks         *sessionLocks
	confirmTTL    time.Duration
}

func NewGateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	messageRepo repos.MessageRepo,
	confirmationRepo repos.ConfirmationRepo,
	memory MemoryService,
	agent AgentClient,
	jobs JobService,
	saver CandidateSaver,
	notifier Notifier,
	confirmTTL time.Duration,
) GateService {
	return &gateService{
		db:            db,
		log:           baseLog.With("service", "GateService"),
		sessions:      sessionRepo,
		messages:      messageRepo,
		confirmations: confirmationRepo,
		memory:        memory,
		agent:         agent,
		jobs:          jobs,
		saver:         saver,
		notifier:      notifier,
		locks:         newSessionLocks(),
		confirmTTL:    confirmTTL,
	}
}

func (s *gateService) HandleTurn(ctx context.Context, rd *requestdata.RequestData, message string) (*TurnResult, error) {
	if !rd.HasSession() {
		return nil, apierr.Validation("session id required")
	}
	s.locks.Lock(rd.SessionID)
	defer s.locks.Unlock(rd.SessionID)

	if _, err := s.sessions.GetOrCreate(ctx, nil, rd.TenantID, rd.UserID, rd.SessionID); err != nil {
		return nil, err
	}
	// The user message is recorded before anything else so the audit
	// trail is complete even when the turn fails below.
	if _, err := s.messages.Append(ctx, nil, rd.TenantID, rd.SessionID, types.RoleUser, message); err != nil {
		return nil, err
	}

	result, err := s.runTurn(ctx, rd, message)
	if err != nil {
		s.log.Error("Turn failed", "sessionID", rd.SessionID, "error", err)
		if _, appendErr := s.messages.Append(ctx, nil, rd.TenantID, rd.SessionID, types.RoleAssistant, failureReply); appendErr != nil {
			s.log.Error("Failed to record failure reply", "sessionID", rd.SessionID, "error", appendErr)
		}
		return nil, err
	}

	if _, err := s.messages.Append(ctx, nil, rd.TenantID, rd.SessionID, types.RoleAssistant, result.Reply); err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, nil, rd.TenantID, rd.SessionID); err != nil {
		s.log.Warn("Failed to touch session", "sessionID", rd.SessionID, "error", err)
	}
	if !result.Pending {
		if err := s.memory.RefreshSummaryIfNeeded(ctx, rd); err != nil {
			s.log.Warn("Summary refresh failed", "sessionID", rd.SessionID, "error", err)
		}
	}
	return result, nil
}

func (s *gateService) runTurn(ctx context.Context, rd *requestdata.RequestData, message string) (*TurnResult, error) {
	pending, err := s.pendingConfirmation(ctx, rd)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return s.resolvePending(ctx, rd, pending, ClassifyDecision(message))
	}

	turn, err := s.memory.BuildContext(ctx, nil, rd)
	if err != nil {
		return nil, err
	}
	proposal, err := s.agent.Propose(ctx, *turn)
	if err != nil {
		return nil, err
	}
	if proposal.Action == nil {
		return &TurnResult{Reply: proposal.Reply}, nil
	}
	return s.createPending(ctx, rd, proposal.Action)
}

// pendingConfirmation returns the session's open confirmation, lazily
// expiring it first when it outlived the TTL.
func (s *gateService) pendingConfirmation(ctx context.Context, rd *requestdata.RequestData) (*types.Confirmation, error) {
	pending, err := s.confirmations.GetPendingForSession(ctx, nil, rd.TenantID, rd.SessionID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, nil
	}
	if s.confirmTTL > 0 && time.Since(pending.CreatedAt) > s.confirmTTL {
		if _, err := s.confirmations.Resolve(ctx, nil, rd.TenantID, pending.ID, types.ConfirmationExpired); err != nil {
			return nil, err
		}
		s.log.Info("Pending confirmation expired", "confirmationID", pending.ID, "sessionID", rd.SessionID)
		return nil, nil
	}
	return pending, nil
}

func (s *gateService) createPending(ctx context.Context, rd *requestdata.RequestData, action *ActionProposal) (*TurnResult, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	payload, err := action.MarshalPayload()
	if err != nil {
		return nil, err
	}
	conf, err := s.confirmations.CreatePending(ctx, nil, rd.TenantID, rd.UserID, rd.SessionID, action.Kind, payload, action.Prompt())
	if err != nil {
		return nil, err
	}
	s.notifier.ConfirmationPending(rd.UserID, conf)
	return &TurnResult{
		Reply:          conf.Prompt,
		Pending:        true,
		ConfirmationID: &conf.ID,
	}, nil
}

// resolvePending runs step two of the gate: interpret the decision against
// the stored confirmation. Dispatch always uses the stored kind/payload, so
// what executes is exactly what was proposed.
func (s *gateService) resolvePending(ctx context.Context, rd *requestdata.RequestData, pending *types.Confirmation, decision Decision) (*TurnResult, error) {
	switch decision {
	case DecisionNegative:
		ok, err := s.confirmations.Resolve(ctx, nil, rd.TenantID, pending.ID, types.ConfirmationDenied)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.Conflict("confirmation %s already resolved", pending.ID)
		}
		return &TurnResult{Reply: DeniedAcknowledgement, ConfirmationID: &pending.ID}, nil

	case DecisionAffirmative:
		return s.approve(ctx, rd, pending)

	default:
		// Not a decision: the pending confirmation stays and the stored
		// prompt is re-issued verbatim.
		return &TurnResult{
			Reply:          pending.Prompt,
			Pending:        true,
			ConfirmationID: &pending.ID,
		}, nil
	}
}

func (s *gateService) approve(ctx context.Context, rd *requestdata.RequestData, pending *types.Confirmation) (*TurnResult, error) {
	result := &TurnResult{ConfirmationID: &pending.ID, ActionDispatched: true}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.confirmations.Resolve(ctx, tx, rd.TenantID, pending.ID, types.ConfirmationApproved)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.Conflict("confirmation %s already resolved", pending.ID)
		}

		switch pending.ActionKind {
		case types.ActionSaveCandidate:
			if _, err := s.saver.Save(ctx, tx, rd, pending.Payload); err != nil {
				return err
			}
			result.Reply = "Candidate profile saved to workspace."
			return nil

		case types.ActionIngestRepo:
			job, _, err := s.jobs.Enqueue(ctx, tx, rd, pending.ActionKind, pending.Payload, pending.IdempotencyKey)
			if err != nil {
				return err
			}
			result.JobID = &job.ID
			result.Reply = fmt.Sprintf("Ingestion job started. Job ID: %s", job.ID)
			return nil

		default:
			return apierr.Validation("unknown action kind %q", pending.ActionKind)
		}
	})
	if err != nil {
		return nil, err
	}

	if pending.ActionKind == types.ActionSaveCandidate {
		s.notifier.WorkspaceUpdated(rd.UserID, "candidate")
	}
	return result, nil
}

func (s *gateService) Resolve(ctx context.Context, rd *requestdata.RequestData, confirmationID uuid.UUID, decision string) (*TurnResult, error) {
	if !rd.HasSession() {
		return nil, apierr.Validation("session id required")
	}
	s.locks.Lock(rd.SessionID)
	defer s.locks.Unlock(rd.SessionID)

	pending, err := s.pendingConfirmation(ctx, rd)
	if err != nil {
		return nil, err
	}
	if pending == nil || (confirmationID != uuid.Nil && pending.ID != confirmationID) {
		return nil, apierr.NotFound("confirmation not found or already resolved")
	}

	d := ClassifyDecision(decision)
	if d == DecisionUndecided {
		return nil, apierr.Validation("decision must be yes or no")
	}
	result, err := s.resolvePending(ctx, rd, pending, d)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.Append(ctx, nil, rd.TenantID, rd.SessionID, types.RoleAssistant, result.Reply); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *gateService) ProposeAction(ctx context.Context, rd *requestdata.RequestData, proposal *ActionProposal) (*TurnResult, error) {
	if !rd.HasSession() {
		return nil, apierr.Validation("session id required")
	}
	s.locks.Lock(rd.SessionID)
	defer s.locks.Unlock(rd.SessionID)

	if _, err := s.sessions.GetOrCreate(ctx, nil, rd.TenantID, rd.UserID, rd.SessionID); err != nil {
		return nil, err
	}
	pending, err := s.pendingConfirmation(ctx, rd)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, apierr.Conflict("a confirmation is already pending for this session")
	}
	return s.createPending(ctx, rd, proposal)
}
