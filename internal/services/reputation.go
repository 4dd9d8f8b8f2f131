package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/types"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

// ScoreUpsertInput is the full score snapshot pushed by the scoring
// pipeline. Categories left nil keep whatever value the record already
// holds; overall score, level and the calculation timestamp are always
// overwritten.
type ScoreUpsertInput struct {
	Categories   types.CategoryScores
	OverallScore decimal.Decimal
	Level        types.ReputationLevel
	ProofHash    string
}

type ReputationService interface {
	UpsertScore(ctx context.Context, identityID uuid.UUID, input ScoreUpsertInput) (*types.ReputationRecord, error)
	UpdateCategories(ctx context.Context, identityID uuid.UUID, categories types.CategoryScores) (*types.ReputationRecord, error)
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*types.ReputationRecord, error)
	GetByWallet(ctx context.Context, walletAddress string) (*types.ReputationRecord, error)
	// Disclose returns the full record for a wallet only when the
	// caller presents a proof artifact that belongs to that wallet's
	// identity and is currently valid.
	Disclose(ctx context.Context, walletAddress, proofHash string) (*types.ReputationRecord, error)
}

type reputationService struct {
	db             *gorm.DB
	log            *logger.Logger
	identityRepo   repos.IdentityRepo
	reputationRepo repos.ReputationRepo
	leaderboard    LeaderboardService
	proofGate      ProofGateService
}

func NewReputationService(
	db *gorm.DB,
	log *logger.Logger,
	identityRepo repos.IdentityRepo,
	reputationRepo repos.ReputationRepo,
	leaderboard LeaderboardService,
	proofGate ProofGateService,
) ReputationService {
	serviceLog := log.With("service", "ReputationService")
	return &reputationService{
		db:             db,
		log:            serviceLog,
		identityRepo:   identityRepo,
		reputationRepo: reputationRepo,
		leaderboard:    leaderboard,
		proofGate:      proofGate,
	}
}

func (rs *reputationService) UpsertScore(ctx context.Context, identityID uuid.UUID, input ScoreUpsertInput) (*types.ReputationRecord, error) {
	if !input.Level.Valid() {
		observability.ScoreUpsertsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validationf("unknown_level", "level %q is not one of bronze, silver, gold", input.Level)
	}
	if input.OverallScore.IsNegative() {
		observability.ScoreUpsertsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validationf("negative_overall_score", "overall score must be >= 0")
	}
	if err := input.Categories.Validate(); err != nil {
		observability.ScoreUpsertsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validation("negative_category_score", err)
	}

	now := time.Now().UTC()
	var record *types.ReputationRecord
	created := false

	// Two concurrent first writes race on the identity_id unique index.
	// The loser's transaction aborts with a conflict; one retry lands it
	// on the merge path under the row lock.
	for attempt := 0; ; attempt++ {
		err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := rs.reputationRepo.GetByIdentityForUpdate(ctx, tx, identityID)
			if apperr.IsNotFound(err) {
				if _, err := rs.identityRepo.GetByID(ctx, tx, identityID); err != nil {
					return err
				}
				fresh := &types.ReputationRecord{
					IdentityID:     identityID,
					OverallScore:   input.OverallScore,
					Level:          input.Level,
					ProofHash:      input.ProofHash,
					LastCalculated: now,
				}
				input.Categories.ApplyTo(fresh)
				saved, err := rs.reputationRepo.Create(ctx, tx, fresh)
				if err != nil {
					return err
				}
				record = saved
				created = true
				return nil
			}
			if err != nil {
				return err
			}

			input.Categories.ApplyTo(existing)
			existing.OverallScore = input.OverallScore
			existing.Level = input.Level
			existing.LastCalculated = now
			if input.ProofHash != "" {
				existing.ProofHash = input.ProofHash
			}
			saved, err := rs.reputationRepo.Save(ctx, tx, existing)
			if err != nil {
				return err
			}
			record = saved
			created = false
			return nil
		})
		if err == nil {
			break
		}
		if attempt == 0 && apperr.CodeOf(err) == "reputation_exists" {
			continue
		}
		observability.ScoreUpsertsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	outcome := "merged"
	if created {
		outcome = "created"
	}
	observability.ScoreUpsertsTotal.WithLabelValues(outcome).Inc()
	rs.log.Info("Upserted reputation score",
		"identity_id", identityID,
		"level", record.Level,
		"overall_score", record.OverallScore,
		"created", created)

	if err := rs.leaderboard.TriggerRebuild(ctx); err != nil {
		// The score is committed; only the snapshot refresh failed. Let
		// the caller retry the idempotent upsert.
		return nil, apperr.Unavailable("leaderboard_rebuild_failed", err)
	}
	return record, nil
}

func (rs *reputationService) UpdateCategories(ctx context.Context, identityID uuid.UUID, categories types.CategoryScores) (*types.ReputationRecord, error) {
	if categories.Empty() {
		return nil, apperr.Validationf("no_categories_supplied", "at least one category score is required")
	}
	if err := categories.Validate(); err != nil {
		return nil, apperr.Validation("negative_category_score", err)
	}

	now := time.Now().UTC()
	var record *types.ReputationRecord
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := rs.reputationRepo.GetByIdentityForUpdate(ctx, tx, identityID)
		if err != nil {
			return err
		}
		categories.ApplyTo(existing)
		existing.LastCalculated = now
		saved, err := rs.reputationRepo.Save(ctx, tx, existing)
		if err != nil {
			return err
		}
		record = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs.log.Info("Merged category scores", "identity_id", identityID)

	if err := rs.leaderboard.TriggerRebuild(ctx); err != nil {
		return nil, apperr.Unavailable("leaderboard_rebuild_failed", err)
	}
	return record, nil
}

func (rs *reputationService) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*types.ReputationRecord, error) {
	return rs.reputationRepo.GetByIdentity(ctx, nil, identityID)
}

func (rs *reputationService) GetByWallet(ctx context.Context, walletAddress string) (*types.ReputationRecord, error) {
	normalized, err := utils.NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, apperr.Validation("invalid_wallet_address", err)
	}
	identity, err := rs.identityRepo.GetByWallet(ctx, nil, normalized)
	if err != nil {
		return nil, err
	}
	return rs.reputationRepo.GetByIdentity(ctx, nil, identity.ID)
}

func (rs *reputationService) Disclose(ctx context.Context, walletAddress, proofHash string) (*types.ReputationRecord, error) {
	normalized, err := utils.NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, apperr.Validation("invalid_wallet_address", err)
	}
	identity, err := rs.identityRepo.GetByWallet(ctx, nil, normalized)
	if err != nil {
		return nil, err
	}
	if err := rs.proofGate.AuthorizeDisclosure(ctx, identity.ID, proofHash); err != nil {
		return nil, err
	}
	return rs.reputationRepo.GetByIdentity(ctx, nil, identity.ID)
}
