package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
)

type RepositoryRepo interface {
	GetByNormalizedURL(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID, normalizedURL string) (*types.Repository, error)
	// Upsert replaces the whole artifact set for (tenant, user,
	// normalized_url) as one unit, or inserts a new row.
	Upsert(ctx context.Context, tx *gorm.DB, repo *types.Repository) (*types.Repository, error)
	ListForUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) ([]*types.Repository, error)
	GetLatest(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.Repository, error)
}

type repositoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepositoryRepo(db *gorm.DB, baseLog *logger.Logger) RepositoryRepo {
	return &repositoryRepo{
		db:  db,
		log: baseLog.With("repo", "RepositoryRepo"),
	}
}

func (r *repositoryRepo) GetByNormalizedURL(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID, normalizedURL string) (*types.Repository, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var repo types.Repository
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND normalized_url = ?", tenantID, userID, normalizedURL).
		First(&repo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

func (r *repositoryRepo) Upsert(ctx context.Context, tx *gorm.DB, repo *types.Repository) (*types.Repository, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.GetByNormalizedURL(ctx, transaction, repo.TenantID, repo.UserID, repo.NormalizedURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := transaction.WithContext(ctx).
			Model(&types.Repository{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"repo_url":            repo.RepoURL,
				"metadata":            repo.Metadata,
				"file_map":            repo.FileMap,
				"stack_signals":       repo.StackSignals,
				"extracted_artifacts": repo.ExtractedArtifacts,
				"updated_at":          gorm.Expr("CURRENT_TIMESTAMP"),
			}).Error; err != nil {
			return nil, err
		}
		existing.RepoURL = repo.RepoURL
		existing.Metadata = repo.Metadata
		existing.FileMap = repo.FileMap
		existing.StackSignals = repo.StackSignals
		existing.ExtractedArtifacts = repo.ExtractedArtifacts
		return existing, nil
	}
	if repo.ID == uuid.Nil {
		repo.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(repo).Error; err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *repositoryRepo) ListForUser(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) ([]*types.Repository, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Repository
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repositoryRepo) GetLatest(ctx context.Context, tx *gorm.DB, tenantID, userID uuid.UUID) (*types.Repository, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var repo types.Repository
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").
		First(&repo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &repo, nil
}
