package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type SummaryRepo interface {
	Get(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (*types.SessionSummary, error)
	// Upsert replaces the summary text and advances the folded watermark.
	Upsert(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, summaryText string, folded int64) (*types.SessionSummary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{
		db:  db,
		log: baseLog.With("repo", "SummaryRepo"),
	}
}

func (r *summaryRepo) Get(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (*types.SessionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary types.SessionSummary
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *summaryRepo) Upsert(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, summaryText string, folded int64) (*types.SessionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.Get(ctx, transaction, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := transaction.WithContext(ctx).
			Model(&types.SessionSummary{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"summary_text": summaryText,
				"folded":       folded,
				"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error; err != nil {
			return nil, err
		}
		existing.SummaryText = summaryText
		existing.Folded = folded
		return existing, nil
	}
	summary := &types.SessionSummary{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SessionID:   sessionID,
		SummaryText: summaryText,
		Folded:      folded,
	}
	if err := transaction.WithContext(ctx).Create(summary).Error; err != nil {
		return nil, err
	}
	return summary, nil
}
