package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type ConfirmationRepo interface {
	CreatePending(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID, actionKind string, payload datatypes.JSON, prompt string) (*types.Confirmation, error)
	GetPendingForSession(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (*types.Confirmation, error)
	// Resolve flips a pending confirmation to status, guarded on it still
	// being pending. Returns false if someone else resolved it first.
	Resolve(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, confirmationID uuid.UUID, status string) (bool, error)
}

type confirmationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConfirmationRepo(db *gorm.DB, baseLog *logger.Logger) ConfirmationRepo {
	return &confirmationRepo{
		db:  db,
		log: baseLog.With("repo", "ConfirmationRepo"),
	}
}

func (r *confirmationRepo) CreatePending(ctx context.Context, tx *gorm.DB, tenantID, userID, sessionID uuid.UUID, actionKind string, payload datatypes.JSON, prompt string) (*types.Confirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	confirmation := &types.Confirmation{
		ID:             uuid.New(),
		TenantID:       tenantID,
		UserID:         userID,
		SessionID:      sessionID,
		ActionKind:     actionKind,
		Payload:        payload,
		Status:         types.ConfirmationPending,
		IdempotencyKey: uuid.NewString(),
		Prompt:         prompt,
	}
	if err := transaction.WithContext(ctx).Create(confirmation).Error; err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (r *confirmationRepo) GetPendingForSession(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (*types.Confirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var confirmation types.Confirmation
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ? AND status = ?", tenantID, sessionID, types.ConfirmationPending).
		Order("created_at DESC").
		First(&confirmation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (r *confirmationRepo) Resolve(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, confirmationID uuid.UUID, status string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	res := transaction.WithContext(ctx).
		Model(&types.Confirmation{}).
		Where("id = ? AND tenant_id = ? AND status = ?", confirmationID, tenantID, types.ConfirmationPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
