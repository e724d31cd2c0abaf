package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

// MemoryService assembles the bounded conversation context handed to the
// agent and maintains the running summary.
type MemoryService interface {
	BuildContext(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData) (*TurnContext, error)
	// RefreshSummaryIfNeeded folds the oldest unfolded window of messages
	// into the running summary once the unfolded backlog crosses the
	// trigger threshold. It reads only that window, never the full history.
	RefreshSummaryIfNeeded(ctx context.Context, rd *requestdata.RequestData) error
}

type memoryService struct {
	db         *gorm.DB
	log        *logger.Logger
	messages   repos.MessageRepo
	summaries  repos.SummaryRepo
	candidates repos.CandidateRepo
	repoArts   repos.RepositoryRepo
	agent      AgentClient

	windowSize    int
	triggerFactor int
}

func NewMemoryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	messageRepo repos.MessageRepo,
	summaryRepo repos.SummaryRepo,
	candidateRepo repos.CandidateRepo,
	repositoryRepo repos.RepositoryRepo,
	agent AgentClient,
	windowSize int,
	triggerFactor int,
) MemoryService {
	if windowSize <= 0 {
		windowSize = 10
	}
	if triggerFactor <= 0 {
		triggerFactor = 2
	}
	return &memoryService{
		db:            db,
		log:           baseLog.With("service", "MemoryService"),
		messages:      messageRepo,
		summaries:     summaryRepo,
		candidates:    candidateRepo,
		repoArts:      repositoryRepo,
		agent:         agent,
		windowSize:    windowSize,
		triggerFactor: triggerFactor,
	}
}

func (s *memoryService) BuildContext(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData) (*TurnContext, error) {
	recent, err := s.messages.GetRecent(ctx, tx, rd.TenantID, rd.SessionID, s.windowSize)
	if err != nil {
		return nil, err
	}
	msgs := make([]AgentMessage, 0, len(recent))
	for _, m := range recent {
		role := m.Role
		if role == types.RoleSystem {
			continue
		}
		msgs = append(msgs, AgentMessage{Role: role, Content: m.Content})
	}

	summaryText := ""
	summary, err := s.summaries.Get(ctx, tx, rd.TenantID, rd.SessionID)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		summaryText = summary.SummaryText
	}

	workspace, err := s.workspaceSnippets(ctx, tx, rd)
	if err != nil {
		return nil, err
	}

	return &TurnContext{
		Messages:  msgs,
		Summary:   summaryText,
		Workspace: workspace,
	}, nil
}

// workspaceSnippets renders the most recently saved candidate and most
// recently ingested repository into a small text block. This keeps the
// context bounded regardless of workspace size.
func (s *memoryService) workspaceSnippets(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData) (string, error) {
	var parts []string

	candidate, err := s.candidates.GetLatest(ctx, tx, rd.TenantID, rd.UserID)
	if err != nil {
		return "", err
	}
	if candidate != nil {
		parts = append(parts, renderCandidate(candidate))
	}

	repo, err := s.repoArts.GetLatest(ctx, tx, rd.TenantID, rd.UserID)
	if err != nil {
		return "", err
	}
	if repo != nil {
		parts = append(parts, renderRepository(repo))
	}

	return strings.Join(parts, "\n\n"), nil
}

func renderCandidate(c *types.Candidate) string {
	var b strings.Builder
	b.WriteString("Candidate profile:\n")
	var skills []string
	if len(c.Skills) > 0 {
		_ = json.Unmarshal(c.Skills, &skills)
	}
	if len(skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(skills, ", "))
	}
	var experience []ExperienceEntry
	if len(c.Experience) > 0 {
		_ = json.Unmarshal(c.Experience, &experience)
	}
	for _, e := range experience {
		fmt.Fprintf(&b, "Experience: %s at %s\n", e.Role, e.Company)
	}
	if c.RawText != "" {
		raw := c.RawText
		if len(raw) > 2000 {
			raw = raw[:2000]
		}
		b.WriteString(raw)
	}
	return b.String()
}

func renderRepository(r *types.Repository) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", r.RepoURL)
	if len(r.Metadata) > 0 {
		fmt.Fprintf(&b, "Metadata: %s\n", string(r.Metadata))
	}
	var artifacts map[string]string
	if len(r.ExtractedArtifacts) > 0 {
		_ = json.Unmarshal(r.ExtractedArtifacts, &artifacts)
	}
	for path, text := range artifacts {
		if len(text) > 3000 {
			text = text[:3000]
		}
		fmt.Fprintf(&b, "%s:\n%s\n", path, text)
	}
	return b.String()
}

func (s *memoryService) RefreshSummaryIfNeeded(ctx context.Context, rd *requestdata.RequestData) error {
	count, err := s.messages.Count(ctx, nil, rd.TenantID, rd.SessionID)
	if err != nil {
		return err
	}
	summary, err := s.summaries.Get(ctx, nil, rd.TenantID, rd.SessionID)
	if err != nil {
		return err
	}
	var folded int64
	existing := ""
	if summary != nil {
		folded = summary.Folded
		existing = summary.SummaryText
	}
	if count-folded <= int64(s.triggerFactor*s.windowSize) {
		return nil
	}

	window, err := s.messages.GetAfterSeq(ctx, nil, rd.TenantID, rd.SessionID, folded, s.windowSize)
	if err != nil {
		return err
	}
	if len(window) == 0 {
		return nil
	}
	agentWindow := make([]AgentMessage, 0, len(window))
	for _, m := range window {
		agentWindow = append(agentWindow, AgentMessage{Role: m.Role, Content: m.Content})
	}
	text, err := s.agent.Summarize(ctx, existing, agentWindow)
	if err != nil {
		return err
	}
	newFolded := window[len(window)-1].Seq
	if _, err := s.summaries.Upsert(ctx, nil, rd.TenantID, rd.SessionID, text, newFolded); err != nil {
		return err
	}
	s.log.Debug("Session summary refreshed",
		"session_id", rd.SessionID, "folded_through_seq", newFolded)
	return nil
}
