package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/cache"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/types"
)

// ProofInput is a verification artifact pushed by the proving pipeline.
// The payload and verification key are stored opaquely; this service
// gates on the recorded validity flag and expiry, it does not re-run
// verification.
type ProofInput struct {
	IdentityID      uuid.UUID
	ProofHash       string
	Payload         string
	VerificationKey string
	PublicInputs    datatypes.JSON
	Valid           bool
	ExpiresAt       *time.Time
}

type ProofGateService interface {
	Register(ctx context.Context, input ProofInput) (*types.ProofArtifact, error)
	// IsValid reports whether the hash names a proof that is flagged
	// valid and unexpired right now. Unknown hashes are (false, nil);
	// only storage trouble surfaces as an error.
	IsValid(ctx context.Context, proofHash string) (bool, error)
	GetByHash(ctx context.Context, proofHash string) (*types.ProofArtifact, error)
	// AuthorizeDisclosure is the gate in front of true-score reads: the
	// proof must exist, belong to the given identity, and be currently
	// valid. Every refusal is a Forbidden error so callers cannot probe
	// which condition failed.
	AuthorizeDisclosure(ctx context.Context, identityID uuid.UUID, proofHash string) error
}

// gateState is the slice of a proof artifact the cache keeps: just
// enough to answer IsValid without a store round trip.
type gateState struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type proofGateService struct {
	db           *gorm.DB
	log          *logger.Logger
	identityRepo repos.IdentityRepo
	proofRepo    repos.ProofRepo
	cache        *cache.Client
	cfg          config.ProofConfig

	now func() time.Time
}

func NewProofGateService(
	db *gorm.DB,
	log *logger.Logger,
	identityRepo repos.IdentityRepo,
	proofRepo repos.ProofRepo,
	cacheClient *cache.Client,
	cfg config.ProofConfig,
) ProofGateService {
	serviceLog := log.With("service", "ProofGateService")
	return &proofGateService{
		db:           db,
		log:          serviceLog,
		identityRepo: identityRepo,
		proofRepo:    proofRepo,
		cache:        cacheClient,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (ps *proofGateService) Register(ctx context.Context, input ProofInput) (*types.ProofArtifact, error) {
	input.ProofHash = strings.TrimSpace(input.ProofHash)
	if input.ProofHash == "" {
		return nil, apperr.Validationf("missing_proof_hash", "proof hash is required")
	}

	artifact := &types.ProofArtifact{
		IdentityID:      input.IdentityID,
		ProofHash:       input.ProofHash,
		Payload:         input.Payload,
		VerificationKey: input.VerificationKey,
		PublicInputs:    input.PublicInputs,
		Valid:           input.Valid,
		ExpiresAt:       input.ExpiresAt,
	}

	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ps.identityRepo.GetByID(ctx, tx, input.IdentityID); err != nil {
			return err
		}
		_, err := ps.proofRepo.Create(ctx, tx, artifact)
		return err
	})
	if err != nil {
		return nil, err
	}

	ps.log.Info("Registered proof artifact",
		"identity_id", input.IdentityID,
		"proof_hash", input.ProofHash,
		"valid", input.Valid)
	return artifact, nil
}

func (ps *proofGateService) IsValid(ctx context.Context, proofHash string) (bool, error) {
	proofHash = strings.TrimSpace(proofHash)
	if proofHash == "" {
		observability.ProofChecksTotal.WithLabelValues("unknown").Inc()
		return false, nil
	}
	now := ps.now().UTC()

	if ps.cache.Enabled() {
		var state gateState
		found, err := ps.cache.GetJSON(ctx, cache.ProofKey(proofHash), &state)
		if err != nil {
			ps.log.Warn("Proof cache read failed", "error", err)
		} else if found {
			observability.CacheRequestsTotal.WithLabelValues("proof", "hit").Inc()
			return ps.gateResult(state.Valid, state.ExpiresAt, now), nil
		} else {
			observability.CacheRequestsTotal.WithLabelValues("proof", "miss").Inc()
		}
	}

	artifact, err := ps.proofRepo.GetByHash(ctx, nil, proofHash)
	if apperr.IsNotFound(err) {
		// Unknown hashes are deliberately not cached: a proof registered
		// a moment later must gate immediately.
		observability.ProofChecksTotal.WithLabelValues("unknown").Inc()
		return false, nil
	}
	if err != nil {
		observability.ProofChecksTotal.WithLabelValues("error").Inc()
		return false, err
	}

	if ps.cache.Enabled() {
		state := gateState{Valid: artifact.Valid, ExpiresAt: artifact.ExpiresAt}
		if err := ps.cache.SetJSON(ctx, cache.ProofKey(proofHash), state, ps.cfg.CacheTTL); err != nil {
			ps.log.Warn("Proof cache write failed", "error", err)
		}
	}
	return ps.gateResult(artifact.Valid, artifact.ExpiresAt, now), nil
}

func (ps *proofGateService) gateResult(valid bool, expiresAt *time.Time, now time.Time) bool {
	ok := valid && (expiresAt == nil || expiresAt.After(now))
	if ok {
		observability.ProofChecksTotal.WithLabelValues("valid").Inc()
	} else {
		observability.ProofChecksTotal.WithLabelValues("invalid").Inc()
	}
	return ok
}

func (ps *proofGateService) GetByHash(ctx context.Context, proofHash string) (*types.ProofArtifact, error) {
	proofHash = strings.TrimSpace(proofHash)
	if proofHash == "" {
		return nil, apperr.Validationf("missing_proof_hash", "proof hash is required")
	}
	return ps.proofRepo.GetByHash(ctx, nil, proofHash)
}

func (ps *proofGateService) AuthorizeDisclosure(ctx context.Context, identityID uuid.UUID, proofHash string) error {
	proofHash = strings.TrimSpace(proofHash)
	if proofHash == "" {
		observability.ProofChecksTotal.WithLabelValues("invalid").Inc()
		return apperr.Forbiddenf("proof_required", "score disclosure requires a proof reference")
	}

	artifact, err := ps.proofRepo.GetByHash(ctx, nil, proofHash)
	if apperr.IsNotFound(err) {
		observability.ProofChecksTotal.WithLabelValues("unknown").Inc()
		return apperr.Forbiddenf("proof_not_acceptable", "proof is missing, expired, or not valid for this wallet")
	}
	if err != nil {
		observability.ProofChecksTotal.WithLabelValues("error").Inc()
		return err
	}
	if artifact.IdentityID != identityID || !artifact.CurrentlyValid(ps.now().UTC()) {
		observability.ProofChecksTotal.WithLabelValues("invalid").Inc()
		return apperr.Forbiddenf("proof_not_acceptable", "proof is missing, expired, or not valid for this wallet")
	}
	observability.ProofChecksTotal.WithLabelValues("valid").Inc()
	return nil
}
