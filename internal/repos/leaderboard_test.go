package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
	"github.com/veilrank/veilrank-backend/internal/types"
)

func seedRankedIdentity(t *testing.T, ctx context.Context, tx *gorm.DB, wallet, pseudonym, chain, score string, createdAt time.Time) *types.Identity {
	t.Helper()
	id := &types.Identity{
		ID:            uuid.New(),
		WalletAddress: wallet,
		Chain:         chain,
		PseudonymID:   &pseudonym,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := tx.WithContext(ctx).Create(id).Error; err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	testutil.SeedReputation(t, ctx, tx, id.ID, score, types.LevelGold)
	return id
}

func TestLeaderboardRepoSourceRows(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewLeaderboardRepo(db, testutil.Logger(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// a and b tie on score; a registered first so it must sort first.
	seedRankedIdentity(t, ctx, tx, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "anon_m4a_abcdefgh23456789", "ethereum", "900", base)
	seedRankedIdentity(t, ctx, tx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", "anon_m4b_abcdefgh23456789", "ethereum", "900", base.Add(time.Minute))
	seedRankedIdentity(t, ctx, tx, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", "anon_m4c_abcdefgh23456789", "polygon", "850", base.Add(2*time.Minute))

	// Not eligible: no pseudonym issued.
	noPseudo := testutil.SeedIdentity(t, ctx, tx, "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb", "")
	testutil.SeedReputation(t, ctx, tx, noPseudo.ID, "9999", types.LevelGold)

	// Not eligible: never scored.
	testutil.SeedIdentity(t, ctx, tx, "0xde709f2102306220921060314715629080e2fb77", "anon_m4d_abcdefgh23456789")

	rows, err := repo.SourceRows(ctx, tx)
	if err != nil {
		t.Fatalf("SourceRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("SourceRows: got %d rows, want 3", len(rows))
	}
	wantOrder := []string{"anon_m4a_abcdefgh23456789", "anon_m4b_abcdefgh23456789", "anon_m4c_abcdefgh23456789"}
	for i, want := range wantOrder {
		if rows[i].PseudonymID != want {
			t.Fatalf("SourceRows[%d] = %q, want %q", i, rows[i].PseudonymID, want)
		}
	}
	if rows[0].Chain != "ethereum" || rows[2].Chain != "polygon" {
		t.Fatalf("SourceRows: chain tags not carried through: %+v", rows)
	}
	if rows[2].Level != types.LevelGold {
		t.Fatalf("SourceRows: level not carried through: %q", rows[2].Level)
	}
}

func TestLeaderboardRepoReplaceAllAndQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewLeaderboardRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if err := repo.AcquireRebuildLock(ctx, tx); err != nil {
		t.Fatalf("AcquireRebuildLock: %v", err)
	}

	first := []*types.LeaderboardEntry{
		{PseudonymID: "anon_m5a_abcdefgh23456789", Level: types.LevelGold, OverallScore: testutil.Dec(t, "900"), Chain: "ethereum", Rank: 1},
		{PseudonymID: "anon_m5b_abcdefgh23456789", Level: types.LevelSilver, OverallScore: testutil.Dec(t, "700"), Chain: "polygon", Rank: 2},
		{PseudonymID: "anon_m5c_abcdefgh23456789", Level: types.LevelBronze, OverallScore: testutil.Dec(t, "500"), Chain: "ethereum", Rank: 3},
	}
	if err := repo.ReplaceAll(ctx, tx, first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	count, err := repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("Count = %d, want 3", count)
	}

	top, err := repo.Top(ctx, tx, 2, "")
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 || top[0].Rank != 1 || top[1].Rank != 2 {
		t.Fatalf("Top: unexpected rows: %+v", top)
	}

	ethOnly, err := repo.Top(ctx, tx, 10, "ethereum")
	if err != nil {
		t.Fatalf("Top chain filter: %v", err)
	}
	if len(ethOnly) != 2 {
		t.Fatalf("Top chain filter: got %d rows, want 2", len(ethOnly))
	}
	// Global ranks are preserved under the filter, not recomputed.
	if ethOnly[0].Rank != 1 || ethOnly[1].Rank != 3 {
		t.Fatalf("Top chain filter: ranks = %d,%d want 1,3", ethOnly[0].Rank, ethOnly[1].Rank)
	}

	rank, err := repo.PositionOf(ctx, tx, "anon_m5b_abcdefgh23456789")
	if err != nil {
		t.Fatalf("PositionOf: %v", err)
	}
	if rank != 2 {
		t.Fatalf("PositionOf = %d, want 2", rank)
	}

	if _, err := repo.PositionOf(ctx, tx, "anon_none_000000000000000"); !apperr.IsNotFound(err) {
		t.Fatalf("PositionOf miss: got %v, want NotFound kind", err)
	}

	// A second replacement fully supersedes the first snapshot.
	second := []*types.LeaderboardEntry{
		{PseudonymID: "anon_m5c_abcdefgh23456789", Level: types.LevelGold, OverallScore: testutil.Dec(t, "1000"), Chain: "ethereum", Rank: 1},
	}
	if err := repo.ReplaceAll(ctx, tx, second); err != nil {
		t.Fatalf("ReplaceAll (second): %v", err)
	}
	count, err = repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("Count after replace: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count after replace = %d, want 1", count)
	}
	if _, err := repo.PositionOf(ctx, tx, "anon_m5a_abcdefgh23456789"); !apperr.IsNotFound(err) {
		t.Fatalf("old snapshot row survived the swap: %v", err)
	}
}

func TestLeaderboardRepoReplaceAllEmpty(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewLeaderboardRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, tx, nil); err != nil {
		t.Fatalf("ReplaceAll(nil): %v", err)
	}
	count, err := repo.Count(ctx, tx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count = %d, want 0", count)
	}
}
