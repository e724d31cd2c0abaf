package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type CandidateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, candidate *types.Candidate) (*types.Candidate, error)
	ListForUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) ([]*types.Candidate, error)
	GetLatest(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.Candidate, error)
}

type candidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCandidateRepo(db *gorm.DB, baseLog *logger.Logger) CandidateRepo {
	return &candidateRepo{
		db:  db,
		log: baseLog.With("repo", "CandidateRepo"),
	}
}

func (r *candidateRepo) Create(ctx context.Context, tx *gorm.DB, candidate *types.Candidate) (*types.Candidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

func (r *candidateRepo) ListForUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) ([]*types.Candidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Candidate
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *candidateRepo) GetLatest(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.Candidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var candidate types.Candidate
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}
