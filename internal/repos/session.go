package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type SessionRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID) (*types.Session, error)
	Get(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID) (*types.Session, error)
	Touch(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.Get(ctx, transaction, tenantID, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	session := &types.Session{
		ID:       sessionID,
		TenantID: tenantID,
		UserID:   userID,
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) Get(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.Session
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND user_id = ?", sessionID, tenantID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Touch(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("id = ? AND tenant_id = ?", sessionID, tenantID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
