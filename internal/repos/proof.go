package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

// ProofRepo stores disclosure credentials. A proof hash is written
// exactly once; duplicates surface as Conflict, never as an overwrite.
type ProofRepo interface {
	Create(ctx context.Context, tx *gorm.DB, artifact *types.ProofArtifact) (*types.ProofArtifact, error)
	GetByHash(ctx context.Context, tx *gorm.DB, proofHash string) (*types.ProofArtifact, error)
}

type proofRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProofRepo(db *gorm.DB, baseLog *logger.Logger) ProofRepo {
	repoLog := baseLog.With("repo", "ProofRepo")
	return &proofRepo{db: db, log: repoLog}
}

func (pr *proofRepo) Create(ctx context.Context, tx *gorm.DB, artifact *types.ProofArtifact) (*types.ProofArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(artifact).Error; err != nil {
		return nil, translateError(err, "proof_not_found", "proof_hash_exists")
	}
	return artifact, nil
}

func (pr *proofRepo) GetByHash(ctx context.Context, tx *gorm.DB, proofHash string) (*types.ProofArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.ProofArtifact
	if err := transaction.WithContext(ctx).
		Where("proof_hash = ?", proofHash).
		First(&result).Error; err != nil {
		return nil, translateError(err, "proof_not_found", "proof_hash_exists")
	}
	return &result, nil
}
