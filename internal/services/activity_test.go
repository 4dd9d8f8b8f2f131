package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
)

func newActivityService(t *testing.T) (ActivityService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	svc := NewActivityService(tx, log, repos.NewIdentityRepo(tx, log), repos.NewActivityRepo(tx, log))
	return svc, tx
}

func TestActivityServiceAppendAndList(t *testing.T) {
	ctx := context.Background()
	svc, tx := newActivityService(t)
	identity := testutil.SeedIdentity(t, ctx, tx, "0xa000000000000000000000000000000000000001", "anon_act1_abcdefghij234567")

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	kinds := []string{"dao_vote", "defi_swap", "dao_vote"}
	for i, kind := range kinds {
		_, err := svc.Append(ctx, ActivityInput{
			IdentityID:     identity.ID,
			ActivityType:   kind,
			TxRef:          fmt.Sprintf("0xtx%d", i),
			ScoreImpact:    testutil.Dec(t, "1.5"),
			Value:          testutil.DecPtr(t, "250"),
			EventTimestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	events, err := svc.ListByIdentity(ctx, identity.ID, 10)
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events: want=3 got=%d", len(events))
	}
	// Newest first.
	if events[0].TxRef != "0xtx2" || events[2].TxRef != "0xtx0" {
		t.Fatalf("event order: got %s..%s", events[0].TxRef, events[2].TxRef)
	}

	limited, err := svc.ListByIdentity(ctx, identity.ID, 2)
	if err != nil {
		t.Fatalf("ListByIdentity limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited events: want=2 got=%d", len(limited))
	}

	votes, err := svc.ListByIdentityAndType(ctx, identity.ID, "DAO_VOTE")
	if err != nil {
		t.Fatalf("ListByIdentityAndType: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("votes: want=2 got=%d", len(votes))
	}
}

func TestActivityServiceAppendValidation(t *testing.T) {
	ctx := context.Background()
	svc, tx := newActivityService(t)
	identity := testutil.SeedIdentity(t, ctx, tx, "0xa000000000000000000000000000000000000002", "anon_act2_abcdefghij234567")

	_, err := svc.Append(ctx, ActivityInput{IdentityID: identity.ID, ActivityType: "  ", ScoreImpact: testutil.Dec(t, "1")})
	if !apperr.IsValidation(err) {
		t.Fatalf("Append blank type: want validation error, got %v", err)
	}

	_, err = svc.Append(ctx, ActivityInput{IdentityID: uuid.New(), ActivityType: "bridge_in", ScoreImpact: testutil.Dec(t, "1")})
	if !apperr.IsNotFound(err) {
		t.Fatalf("Append unknown identity: want not found, got %v", err)
	}

	_, err = svc.ListByIdentity(ctx, uuid.New(), 5)
	if !apperr.IsNotFound(err) {
		t.Fatalf("ListByIdentity unknown identity: want not found, got %v", err)
	}
}

func TestActivityServiceDefaultsEventTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, tx := newActivityService(t)
	identity := testutil.SeedIdentity(t, ctx, tx, "0xa000000000000000000000000000000000000003", "anon_act3_abcdefghij234567")

	before := time.Now().UTC().Add(-time.Second)
	event, err := svc.Append(ctx, ActivityInput{
		IdentityID:   identity.ID,
		ActivityType: "nft_mint",
		ScoreImpact:  testutil.Dec(t, "0"),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	after := time.Now().UTC().Add(time.Second)
	if event.EventTimestamp.Before(before) || event.EventTimestamp.After(after) {
		t.Fatalf("event timestamp not defaulted to now: %s", event.EventTimestamp)
	}
}
