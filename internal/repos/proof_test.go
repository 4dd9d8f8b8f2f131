package repos

import (
	"context"
	"testing"
	"time"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
	"github.com/veilrank/veilrank-backend/internal/types"
)

func TestProofRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewProofRepo(db, testutil.Logger(t))
	ctx := context.Background()

	identity := testutil.SeedIdentity(t, ctx, tx, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "anon_m6a_abcdefgh23456789")
	expiry := time.Now().Add(time.Hour).UTC()

	created, err := repo.Create(ctx, tx, &types.ProofArtifact{
		IdentityID:      identity.ID,
		ProofHash:       "0xproof_m6a",
		Payload:         `{"pi_a":"..."}`,
		VerificationKey: "vk",
		Valid:           true,
		ExpiresAt:       &expiry,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByHash(ctx, tx, "0xproof_m6a")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.ID != created.ID || got.IdentityID != identity.ID {
		t.Fatalf("GetByHash: unexpected artifact: %+v", got)
	}
	if !got.Valid || got.ExpiresAt == nil {
		t.Fatalf("GetByHash: validity fields not persisted: %+v", got)
	}

	if _, err := repo.GetByHash(ctx, tx, "0xunknown"); !apperr.IsNotFound(err) {
		t.Fatalf("GetByHash miss: got %v, want NotFound kind", err)
	}
}

func TestProofRepoHashWrittenOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewProofRepo(db, testutil.Logger(t))
	ctx := context.Background()

	identity := testutil.SeedIdentity(t, ctx, tx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", "anon_m6b_abcdefgh23456789")
	testutil.SeedProof(t, ctx, tx, identity.ID, "0xproof_m6b", true, nil)

	_, err := repo.Create(ctx, tx, &types.ProofArtifact{
		IdentityID: identity.ID,
		ProofHash:  "0xproof_m6b",
		Valid:      false,
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("duplicate proof hash: got %v, want Conflict kind", err)
	}
}
