package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestReputationLevelOrdering(t *testing.T) {
	if !(LevelBronze.Tier() < LevelSilver.Tier() && LevelSilver.Tier() < LevelGold.Tier()) {
		t.Fatalf("level tiers are not ordered bronze < silver < gold: %d %d %d",
			LevelBronze.Tier(), LevelSilver.Tier(), LevelGold.Tier())
	}
	if ReputationLevel("platinum").Valid() {
		t.Fatalf("unknown level reported valid")
	}
	if ReputationLevel("platinum").Tier() != -1 {
		t.Fatalf("unknown level has tier %d, want -1", ReputationLevel("platinum").Tier())
	}
}

func TestCategoryScoresApplyToMergesOnlySupplied(t *testing.T) {
	rec := &ReputationRecord{
		DaoScore:           dec("10"),
		DefiScore:          dec("20"),
		NftScore:           dec("30"),
		BridgeScore:        dec("40"),
		VotingScore:        dec("50"),
		ScamAvoidanceScore: dec("60"),
	}
	patch := CategoryScores{Defi: decPtr("250.25")}
	patch.ApplyTo(rec)

	if !rec.DefiScore.Equal(dec("250.25")) {
		t.Fatalf("defi score = %s, want 250.25", rec.DefiScore)
	}
	for name, got := range map[string]decimal.Decimal{
		"dao":            rec.DaoScore,
		"nft":            rec.NftScore,
		"bridge":         rec.BridgeScore,
		"voting":         rec.VotingScore,
		"scam_avoidance": rec.ScamAvoidanceScore,
	} {
		want := map[string]string{
			"dao": "10", "nft": "30", "bridge": "40", "voting": "50", "scam_avoidance": "60",
		}[name]
		if !got.Equal(dec(want)) {
			t.Errorf("category %s changed to %s, want %s untouched", name, got, want)
		}
	}
}

func TestCategoryScoresValidateRejectsNegative(t *testing.T) {
	cs := CategoryScores{Voting: decPtr("-1")}
	if err := cs.Validate(); err == nil {
		t.Fatalf("negative voting score passed validation")
	}
	ok := CategoryScores{Voting: decPtr("0"), Dao: decPtr("12.5")}
	if err := ok.Validate(); err != nil {
		t.Fatalf("non-negative scores rejected: %v", err)
	}
}

func TestCategoryScoresEmpty(t *testing.T) {
	if !(CategoryScores{}).Empty() {
		t.Fatalf("zero CategoryScores not reported empty")
	}
	if (CategoryScores{Nft: decPtr("1")}).Empty() {
		t.Fatalf("populated CategoryScores reported empty")
	}
}

func TestProofArtifactCurrentlyValid(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Second)

	tests := []struct {
		name string
		p    *ProofArtifact
		want bool
	}{
		{"nil artifact", nil, false},
		{"flag false", &ProofArtifact{Valid: false}, false},
		{"valid no expiry", &ProofArtifact{Valid: true}, true},
		{"valid future expiry", &ProofArtifact{Valid: true, ExpiresAt: &future}, true},
		{"expired one second ago", &ProofArtifact{Valid: true, ExpiresAt: &past}, false},
		{"expiry exactly now", &ProofArtifact{Valid: true, ExpiresAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.CurrentlyValid(now); got != tt.want {
				t.Fatalf("CurrentlyValid = %v, want %v", got, tt.want)
			}
		})
	}
}
