package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type MessageRepo interface {
	// Append assigns the next sequence number and inserts in one
	// transaction. The unique (session_id, seq) index rejects races.
	Append(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, role, content string) (*types.Message, error)
	// GetRecent returns the last limit messages in ascending seq order.
	GetRecent(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, limit int) ([]*types.Message, error)
	// GetAfterSeq returns up to limit messages with seq > afterSeq, ascending.
	GetAfterSeq(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, afterSeq int64, limit int) ([]*types.Message, error)
	Count(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{
		db:  db,
		log: baseLog.With("repo", "MessageRepo"),
	}
}

func (r *messageRepo) Append(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, role, content string) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	msg := &types.Message{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var maxSeq int64
		if err := txx.Model(&types.Message{}).
			Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		msg.Seq = maxSeq + 1
		return txx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepo) GetRecent(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, limit int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Message
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("seq DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// reverse into ascending order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) GetAfterSeq(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID, afterSeq int64, limit int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Message
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ? AND seq > ?", tenantID, sessionID, afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) Count(ctx context.Context, tx *gorm.DB, tenantID, sessionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
