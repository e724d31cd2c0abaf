package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/talentcopilot/backend/internal/db"
	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/repos"
	"github.com/talentcopilot/backend/internal/requestdata"
	"github.com/talentcopilot/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func seedRequestData(t *testing.T, gdb *gorm.DB) *requestdata.RequestData {
	t.Helper()
	rd := &requestdata.RequestData{
		TenantID:  uuid.New(),
		UserID:    uuid.New(),
		SessionID: uuid.New(),
	}
	if err := gdb.Create(&types.Tenant{ID: rd.TenantID, Name: "acme"}).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	if err := gdb.Create(&types.User{ID: rd.UserID, TenantID: rd.TenantID, Email: "recruiter@acme.test"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return rd
}

// fakeAgent returns scripted proposals in order and fails once the script
// runs out, so a test notices an unexpected extra agent round trip.
type fakeAgent struct {
	script    []*TurnProposal
	proposals int
	summaries int
	failWith  error
}

func (a *fakeAgent) Propose(_ context.Context, _ TurnContext) (*TurnProposal, error) {
	if a.failWith != nil {
		return nil, a.failWith
	}
	if a.proposals >= len(a.script) {
		return nil, fmt.Errorf("fakeAgent: no scripted proposal for call %d", a.proposals+1)
	}
	p := a.script[a.proposals]
	a.proposals++
	return p, nil
}

func (a *fakeAgent) Summarize(_ context.Context, existing string, window []AgentMessage) (string, error) {
	a.summaries++
	return fmt.Sprintf("summary v%d (%d messages folded)", a.summaries, len(window)), nil
}

type gateFixture struct {
	db            *gorm.DB
	rd            *requestdata.RequestData
	agent         *fakeAgent
	gate          GateService
	messages      repos.MessageRepo
	confirmations repos.ConfirmationRepo
	jobs          repos.JobRepo
	candidates    repos.CandidateRepo
}

func newGateFixture(t *testing.T, agent *fakeAgent, confirmTTL time.Duration) *gateFixture {
	t.Helper()
	gdb := newTestDB(t)
	rd := seedRequestData(t, gdb)
	log := logger.NewNop()

	sessionRepo := repos.NewSessionRepo(gdb, log)
	messageRepo := repos.NewMessageRepo(gdb, log)
	confirmationRepo := repos.NewConfirmationRepo(gdb, log)
	summaryRepo := repos.NewSummaryRepo(gdb, log)
	candidateRepo := repos.NewCandidateRepo(gdb, log)
	repositoryRepo := repos.NewRepositoryRepo(gdb, log)
	jobRepo := repos.NewJobRepo(gdb, log)

	memory := NewMemoryService(gdb, log, messageRepo, summaryRepo, candidateRepo, repositoryRepo, agent, 10, 2)
	jobSvc := NewJobService(jobRepo, NopNotifier{}, log)
	saver := NewCandidateSaver(gdb, log, candidateRepo)
	gate := NewGateService(gdb, log, sessionRepo, messageRepo, confirmationRepo, memory, agent, jobSvc, saver, NopNotifier{}, confirmTTL)

	return &gateFixture{
		db:            gdb,
		rd:            rd,
		agent:         agent,
		gate:          gate,
		messages:      messageRepo,
		confirmations: confirmationRepo,
		jobs:          jobRepo,
		candidates:    candidateRepo,
	}
}

func (f *gateFixture) jobCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&types.Job{}).Count(&n).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	return n
}

func (f *gateFixture) lastMessage(t *testing.T) *types.Message {
	t.Helper()
	recent, err := f.messages.GetRecent(context.Background(), nil, f.rd.TenantID, f.rd.SessionID, 1)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(recent) == 0 {
		t.Fatal("expected at least one message")
	}
	return recent[0]
}
