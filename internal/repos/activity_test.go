package repos

import (
	"context"
	"testing"
	"time"

	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
	"github.com/veilrank/veilrank-backend/internal/types"
)

func TestActivityRepoOrderingAndLimit(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewActivityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	identity := testutil.SeedIdentity(t, ctx, tx, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "anon_m3a_abcdefgh23456789")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of timestamp order on purpose: retrieval orders by
	// event time, not insertion order.
	for _, ev := range []struct {
		typ string
		ts  time.Time
	}{
		{"dao_vote", base.Add(1 * time.Hour)},
		{"defi_swap", base.Add(3 * time.Hour)},
		{"dao_vote", base.Add(2 * time.Hour)},
	} {
		if _, err := repo.Append(ctx, tx, &types.ActivityEvent{
			IdentityID:     identity.ID,
			ActivityType:   ev.typ,
			ScoreImpact:    testutil.Dec(t, "5"),
			EventTimestamp: ev.ts,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := repo.ListByIdentity(ctx, tx, identity.ID, 0)
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByIdentity: got %d events, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].EventTimestamp.After(all[i-1].EventTimestamp) {
			t.Fatalf("ListByIdentity: events not in descending timestamp order: %v before %v",
				all[i-1].EventTimestamp, all[i].EventTimestamp)
		}
	}
	if all[0].ActivityType != "defi_swap" {
		t.Fatalf("ListByIdentity: newest event is %q, want defi_swap", all[0].ActivityType)
	}

	limited, err := repo.ListByIdentity(ctx, tx, identity.ID, 2)
	if err != nil {
		t.Fatalf("ListByIdentity limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("ListByIdentity limited: got %d events, want 2", len(limited))
	}

	daoOnly, err := repo.ListByIdentityAndType(ctx, tx, identity.ID, "dao_vote")
	if err != nil {
		t.Fatalf("ListByIdentityAndType: %v", err)
	}
	if len(daoOnly) != 2 {
		t.Fatalf("ListByIdentityAndType: got %d events, want 2", len(daoOnly))
	}
	for _, ev := range daoOnly {
		if ev.ActivityType != "dao_vote" {
			t.Fatalf("ListByIdentityAndType: stray type %q", ev.ActivityType)
		}
	}
	if !daoOnly[0].EventTimestamp.After(daoOnly[1].EventTimestamp) {
		t.Fatalf("ListByIdentityAndType: not in descending timestamp order")
	}
}

func TestActivityRepoDefaultsEventTimestamp(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewActivityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	identity := testutil.SeedIdentity(t, ctx, tx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", "anon_m3b_abcdefgh23456789")

	ev, err := repo.Append(ctx, tx, &types.ActivityEvent{
		IdentityID:   identity.ID,
		ActivityType: "bridge_transfer",
		ScoreImpact:  testutil.Dec(t, "1.5"),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ev.EventTimestamp.IsZero() {
		t.Fatalf("Append: event timestamp not defaulted")
	}
}

func TestActivityRepoIsolatesIdentities(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewActivityRepo(db, testutil.Logger(t))
	ctx := context.Background()

	a := testutil.SeedIdentity(t, ctx, tx, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", "anon_m3c_abcdefgh23456789")
	b := testutil.SeedIdentity(t, ctx, tx, "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb", "anon_m3d_abcdefgh23456789")

	if _, err := repo.Append(ctx, tx, &types.ActivityEvent{
		IdentityID:   a.ID,
		ActivityType: "nft_mint",
		ScoreImpact:  testutil.Dec(t, "3"),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := repo.ListByIdentity(ctx, tx, b.ID, 0)
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("ListByIdentity: identity b sees %d foreign events", len(events))
	}
}
