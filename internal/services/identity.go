package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/types"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

// IdentityService registers wallets under freshly issued pseudonyms and
// resolves identities in both directions. Resolution from pseudonym back
// to wallet is for internal callers only; the public surface never
// exposes it.
type IdentityService interface {
	Register(ctx context.Context, walletAddress, chain, publicKey string) (*types.Identity, error)
	LookupByWallet(ctx context.Context, walletAddress string) (*types.Identity, error)
	LookupByPseudonym(ctx context.Context, pseudonymID string) (*types.Identity, error)
	AttachMetadata(ctx context.Context, identityID uuid.UUID, patch types.IdentityPatch) (*types.Identity, error)
}

type identityService struct {
	db           *gorm.DB
	log          *logger.Logger
	identityRepo repos.IdentityRepo
	cfg          config.IdentityConfig
}

func NewIdentityService(db *gorm.DB, log *logger.Logger, identityRepo repos.IdentityRepo, cfg config.IdentityConfig) IdentityService {
	serviceLog := log.With("service", "IdentityService")
	return &identityService{db: db, log: serviceLog, identityRepo: identityRepo, cfg: cfg}
}

func (is *identityService) Register(ctx context.Context, walletAddress, chain, publicKey string) (*types.Identity, error) {
	normalized, err := utils.NormalizeWalletAddress(walletAddress)
	if err != nil {
		observability.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validation("invalid_wallet_address", err)
	}

	chain = strings.ToLower(strings.TrimSpace(chain))
	if chain == "" {
		observability.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validationf("missing_chain", "chain is required")
	}

	maxAttempts := is.cfg.PseudonymMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// The pseudonym space is large enough that collisions are freak
	// events, but a collision surfaces as the same unique violation a
	// duplicate wallet does. Re-check the wallet on each attempt so the
	// two cases cannot be confused, and re-roll the pseudonym a bounded
	// number of times.
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pseudonym, err := utils.GeneratePseudonym()
		if err != nil {
			observability.RegistrationsTotal.WithLabelValues("error").Inc()
			return nil, apperr.Unavailable("pseudonym_generation_failed", err)
		}

		identity := &types.Identity{
			WalletAddress: normalized,
			Chain:         chain,
			PublicKey:     strings.TrimSpace(publicKey),
			PseudonymID:   &pseudonym,
		}

		err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			exists, err := is.identityRepo.WalletExists(ctx, tx, normalized)
			if err != nil {
				return err
			}
			if exists {
				return apperr.Conflictf("wallet_already_registered", "wallet is already bound to a pseudonym")
			}
			_, err = is.identityRepo.Create(ctx, tx, identity)
			return err
		})
		if err == nil {
			observability.RegistrationsTotal.WithLabelValues("ok").Inc()
			is.log.Info("Registered identity",
				"identity_id", identity.ID,
				"wallet_address", normalized,
				"pseudonym", pseudonym,
				"chain", chain)
			return identity, nil
		}
		if apperr.CodeOf(err) == "wallet_already_registered" {
			observability.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		if apperr.IsConflict(err) {
			// Wallet was free moments ago, so this violation is either a
			// pseudonym collision or a concurrent registration of the
			// same wallet. The next attempt's wallet re-check settles it.
			is.log.Warn("Pseudonym collision on registration, re-rolling",
				"attempt", attempt, "wallet_address", normalized)
			continue
		}
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.RegistrationsTotal.WithLabelValues("conflict").Inc()
	return nil, apperr.Conflictf("pseudonym_space_exhausted", "pseudonym collisions persisted across %d attempts", maxAttempts)
}

func (is *identityService) LookupByWallet(ctx context.Context, walletAddress string) (*types.Identity, error) {
	normalized, err := utils.NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, apperr.Validation("invalid_wallet_address", err)
	}
	return is.identityRepo.GetByWallet(ctx, nil, normalized)
}

func (is *identityService) LookupByPseudonym(ctx context.Context, pseudonymID string) (*types.Identity, error) {
	pseudonymID = strings.TrimSpace(pseudonymID)
	if !utils.IsPseudonym(pseudonymID) {
		return nil, apperr.Validationf("invalid_pseudonym", "malformed pseudonym handle")
	}
	return is.identityRepo.GetByPseudonym(ctx, nil, pseudonymID)
}

func (is *identityService) AttachMetadata(ctx context.Context, identityID uuid.UUID, patch types.IdentityPatch) (*types.Identity, error) {
	if patch.WalletAddress != nil {
		return nil, apperr.Conflictf("wallet_immutable", "wallet address cannot be changed after registration")
	}
	if patch.PseudonymID != nil {
		return nil, apperr.Conflictf("pseudonym_immutable", "pseudonym cannot be changed after registration")
	}
	if patch.PublicKey == nil {
		return nil, apperr.Validationf("empty_patch", "no mutable fields supplied")
	}

	var updated *types.Identity
	err := is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := is.identityRepo.GetByID(ctx, tx, identityID); err != nil {
			return err
		}
		if err := is.identityRepo.UpdatePublicKey(ctx, tx, identityID, strings.TrimSpace(*patch.PublicKey)); err != nil {
			return err
		}
		result, err := is.identityRepo.GetByID(ctx, tx, identityID)
		if err != nil {
			return err
		}
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	is.log.Info("Updated identity metadata", "identity_id", identityID)
	return updated, nil
}
