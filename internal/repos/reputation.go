package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

type ReputationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.ReputationRecord) (*types.ReputationRecord, error)
	GetByIdentity(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.ReputationRecord, error)
	// GetByIdentityForUpdate takes a row lock so concurrent partial
	// merges to the same identity serialize instead of interleaving
	// field by field. Callers must already be inside a transaction.
	GetByIdentityForUpdate(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.ReputationRecord, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.ReputationRecord) (*types.ReputationRecord, error)
}

type reputationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReputationRepo(db *gorm.DB, baseLog *logger.Logger) ReputationRepo {
	repoLog := baseLog.With("repo", "ReputationRepo")
	return &reputationRepo{db: db, log: repoLog}
}

func (rr *reputationRepo) Create(ctx context.Context, tx *gorm.DB, record *types.ReputationRecord) (*types.ReputationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, translateError(err, "reputation_not_found", "reputation_exists")
	}
	return record, nil
}

func (rr *reputationRepo) GetByIdentity(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.ReputationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.ReputationRecord
	if err := transaction.WithContext(ctx).
		Where("identity_id = ?", identityID).
		First(&result).Error; err != nil {
		return nil, translateError(err, "reputation_not_found", "reputation_exists")
	}
	return &result, nil
}

func (rr *reputationRepo) GetByIdentityForUpdate(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.ReputationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	q := transaction.WithContext(ctx)
	// SQLite serializes writers at the database level; the locking
	// clause is postgres-only syntax.
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var result types.ReputationRecord
	if err := q.
		Where("identity_id = ?", identityID).
		First(&result).Error; err != nil {
		return nil, translateError(err, "reputation_not_found", "reputation_exists")
	}
	return &result, nil
}

func (rr *reputationRepo) Save(ctx context.Context, tx *gorm.DB, record *types.ReputationRecord) (*types.ReputationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Save(record).Error; err != nil {
		return nil, translateError(err, "reputation_not_found", "reputation_exists")
	}
	return record, nil
}
