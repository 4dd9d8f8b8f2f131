package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

type IdentityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, identity *types.Identity) (*types.Identity, error)
	GetByID(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.Identity, error)
	GetByWallet(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.Identity, error)
	GetByPseudonym(ctx context.Context, tx *gorm.DB, pseudonymID string) (*types.Identity, error)
	WalletExists(ctx context.Context, tx *gorm.DB, walletAddress string) (bool, error)
	UpdatePublicKey(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, publicKey string) error
}

type identityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	repoLog := baseLog.With("repo", "IdentityRepo")
	return &identityRepo{db: db, log: repoLog}
}

func (ir *identityRepo) Create(ctx context.Context, tx *gorm.DB, identity *types.Identity) (*types.Identity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if err := transaction.WithContext(ctx).Create(identity).Error; err != nil {
		return nil, translateError(err, "identity_not_found", "identity_exists")
	}
	return identity, nil
}

func (ir *identityRepo) GetByID(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*types.Identity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Identity
	if err := transaction.WithContext(ctx).
		Where("id = ?", identityID).
		First(&result).Error; err != nil {
		return nil, translateError(err, "identity_not_found", "identity_exists")
	}
	return &result, nil
}

func (ir *identityRepo) GetByWallet(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.Identity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Identity
	if err := transaction.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		First(&result).Error; err != nil {
		return nil, translateError(err, "identity_not_found", "identity_exists")
	}
	return &result, nil
}

func (ir *identityRepo) GetByPseudonym(ctx context.Context, tx *gorm.DB, pseudonymID string) (*types.Identity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Identity
	if err := transaction.WithContext(ctx).
		Where("pseudonym_id = ?", pseudonymID).
		First(&result).Error; err != nil {
		return nil, translateError(err, "identity_not_found", "identity_exists")
	}
	return &result, nil
}

func (ir *identityRepo) WalletExists(ctx context.Context, tx *gorm.DB, walletAddress string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Identity{}).
		Where("wallet_address = ?", walletAddress).
		Count(&count).Error; err != nil {
		return false, translateError(err, "identity_not_found", "identity_exists")
	}
	return count > 0, nil
}

func (ir *identityRepo) UpdatePublicKey(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, publicKey string) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Identity{}).
		Where("id = ?", identityID).
		Update("public_key", publicKey).Error; err != nil {
		return translateError(err, "identity_not_found", "identity_exists")
	}
	return nil
}
