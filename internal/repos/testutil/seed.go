package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/types"
)

// SeedIdentity inserts an identity; an empty pseudonym seeds one that
// has not been issued a handle yet.
func SeedIdentity(tb testing.TB, ctx context.Context, tx *gorm.DB, wallet, pseudonym string) *types.Identity {
	tb.Helper()
	id := &types.Identity{
		ID:            uuid.New(),
		WalletAddress: wallet,
		Chain:         "ethereum",
	}
	if pseudonym != "" {
		id.PseudonymID = &pseudonym
	}
	if err := tx.WithContext(ctx).Create(id).Error; err != nil {
		tb.Fatalf("seed identity: %v", err)
	}
	return id
}

func SeedReputation(tb testing.TB, ctx context.Context, tx *gorm.DB, identityID uuid.UUID, overall string, level types.ReputationLevel) *types.ReputationRecord {
	tb.Helper()
	rec := &types.ReputationRecord{
		ID:             uuid.New(),
		IdentityID:     identityID,
		OverallScore:   Dec(tb, overall),
		Level:          level,
		LastCalculated: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed reputation record: %v", err)
	}
	return rec
}

func SeedProof(tb testing.TB, ctx context.Context, tx *gorm.DB, identityID uuid.UUID, hash string, valid bool, expiresAt *time.Time) *types.ProofArtifact {
	tb.Helper()
	p := &types.ProofArtifact{
		ID:         uuid.New(),
		IdentityID: identityID,
		ProofHash:  hash,
		Payload:    "opaque",
		Valid:      valid,
		ExpiresAt:  expiresAt,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed proof artifact: %v", err)
	}
	return p
}

func Dec(tb testing.TB, s string) decimal.Decimal {
	tb.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		tb.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func DecPtr(tb testing.TB, s string) *decimal.Decimal {
	tb.Helper()
	d := Dec(tb, s)
	return &d
}

func PtrTime(v time.Time) *time.Time { return &v }
