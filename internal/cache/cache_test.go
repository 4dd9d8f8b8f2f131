package cache

import (
	"context"
	"testing"
	"time"
)

func TestNilClientIsSafeAndDisabled(t *testing.T) {
	var c *Client
	ctx := context.Background()

	if c.Enabled() {
		t.Fatalf("nil client reports enabled")
	}
	var dest struct{ X int }
	found, err := c.GetJSON(ctx, "k", &dest)
	if found || err != nil {
		t.Fatalf("GetJSON on nil client: found=%v err=%v", found, err)
	}
	if err := c.SetJSON(ctx, "k", dest, time.Second); err != nil {
		t.Fatalf("SetJSON on nil client: %v", err)
	}
	if _, found, err := c.GetInt64(ctx, "k"); found || err != nil {
		t.Fatalf("GetInt64 on nil client: found=%v err=%v", found, err)
	}
	if err := c.Incr(ctx, "k"); err != nil {
		t.Fatalf("Incr on nil client: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete on nil client: %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping on nil client: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestKeyLayout(t *testing.T) {
	if got, want := LeaderboardTopKey(3, 100, ""), "veilrank:leaderboard:3:top:100:all"; got != want {
		t.Errorf("LeaderboardTopKey = %q, want %q", got, want)
	}
	if got, want := LeaderboardTopKey(0, 50, "polygon"), "veilrank:leaderboard:0:top:50:polygon"; got != want {
		t.Errorf("LeaderboardTopKey = %q, want %q", got, want)
	}
	if got, want := ProofKey("0xabc"), "veilrank:proof:0xabc"; got != want {
		t.Errorf("ProofKey = %q, want %q", got, want)
	}
}
