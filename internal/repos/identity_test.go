package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
	"github.com/veilrank/veilrank-backend/internal/types"
)

func TestIdentityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewIdentityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	pseudo := "anon_m1a_abcdefgh23456789"
	created, err := repo.Create(ctx, tx, &types.Identity{
		WalletAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Chain:         "ethereum",
		PseudonymID:   &pseudo,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("Create: id was not assigned")
	}

	gotByID, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotByID.WalletAddress != created.WalletAddress {
		t.Fatalf("GetByID: unexpected result: %+v", gotByID)
	}

	gotByWallet, err := repo.GetByWallet(ctx, tx, created.WalletAddress)
	if err != nil {
		t.Fatalf("GetByWallet: %v", err)
	}
	if gotByWallet.ID != created.ID {
		t.Fatalf("GetByWallet: unexpected result: %+v", gotByWallet)
	}

	gotByPseudonym, err := repo.GetByPseudonym(ctx, tx, pseudo)
	if err != nil {
		t.Fatalf("GetByPseudonym: %v", err)
	}
	if gotByPseudonym.ID != created.ID {
		t.Fatalf("GetByPseudonym: unexpected result: %+v", gotByPseudonym)
	}

	exists, err := repo.WalletExists(ctx, tx, created.WalletAddress)
	if err != nil {
		t.Fatalf("WalletExists: %v", err)
	}
	if !exists {
		t.Fatalf("WalletExists: expected true")
	}

	exists, err = repo.WalletExists(ctx, tx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	if err != nil {
		t.Fatalf("WalletExists (missing): %v", err)
	}
	if exists {
		t.Fatalf("WalletExists (missing): expected false")
	}

	if err := repo.UpdatePublicKey(ctx, tx, created.ID, "0x04deadbeef"); err != nil {
		t.Fatalf("UpdatePublicKey: %v", err)
	}
	updated, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if updated.PublicKey != "0x04deadbeef" {
		t.Fatalf("UpdatePublicKey: public key = %q", updated.PublicKey)
	}
	if updated.Pseudonym() != pseudo {
		t.Fatalf("UpdatePublicKey: pseudonym changed to %q", updated.Pseudonym())
	}
}

func TestIdentityRepoNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewIdentityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, tx, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("GetByID miss: got %v, want NotFound kind", err)
	}
	if _, err := repo.GetByWallet(ctx, tx, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"); !apperr.IsNotFound(err) {
		t.Fatalf("GetByWallet miss: got %v, want NotFound kind", err)
	}
	if _, err := repo.GetByPseudonym(ctx, tx, "anon_none_0000000000000000"); !apperr.IsNotFound(err) {
		t.Fatalf("GetByPseudonym miss: got %v, want NotFound kind", err)
	}
}

func TestIdentityRepoDuplicateWallet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewIdentityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	wallet := "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
	testutil.SeedIdentity(t, ctx, tx, wallet, "anon_m1b_abcdefgh23456789")

	// The failing insert stays last: it poisons the transaction on
	// postgres.
	_, err := repo.Create(ctx, tx, &types.Identity{
		WalletAddress: wallet,
		Chain:         "ethereum",
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("duplicate wallet: got %v, want Conflict kind", err)
	}
}

func TestIdentityRepoDuplicatePseudonym(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewIdentityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	pseudo := "anon_m1c_abcdefgh23456789"
	testutil.SeedIdentity(t, ctx, tx, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", pseudo)

	_, err := repo.Create(ctx, tx, &types.Identity{
		WalletAddress: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		Chain:         "ethereum",
		PseudonymID:   &pseudo,
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("duplicate pseudonym: got %v, want Conflict kind", err)
	}
}
