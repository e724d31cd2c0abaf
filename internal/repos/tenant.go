package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type TenantRepo interface {
	Get(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.Tenant, error)
	// GetUser resolves a user inside its tenant; a user id from another
	// tenant is indistinguishable from a missing one.
	GetUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.User, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return &tenantRepo{
		db:  db,
		log: baseLog.With("repo", "TenantRepo"),
	}
}

func (r *tenantRepo) Get(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var tenant types.Tenant
	err := transaction.WithContext(ctx).
		Where("id = ?", tenantID).
		First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepo) GetUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var user types.User
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", userID, tenantID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
