package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/veilrank/veilrank-backend/internal/types"
)

var snapshotViolationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "veilrank_snapshot_violations_total",
		Help: "Leaderboard snapshot invariant violations found by integrity checks.",
	},
	[]string{"violation"},
)

// IntegrityReport is the outcome of one snapshot verification pass.
type IntegrityReport struct {
	OK        bool      `json:"ok"`
	Entries   int       `json:"entries"`
	Issues    []string  `json:"issues,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// VerifyLeaderboardSnapshot checks the published snapshot against the
// ranking invariants: ranks dense over 1..N with entries ordered by
// rank, one entry per pseudonym, scores monotonically non-increasing
// and never negative. Entries must arrive rank ASC, the order Top
// serves them in.
func VerifyLeaderboardSnapshot(entries []*types.LeaderboardEntry) IntegrityReport {
	report := IntegrityReport{
		OK:        true,
		Entries:   len(entries),
		CheckedAt: time.Now().UTC(),
	}

	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if entry.Rank != i+1 {
			report.fail("rank_gap", fmt.Sprintf("position %d holds rank %d", i+1, entry.Rank))
		}
		if _, dup := seen[entry.PseudonymID]; dup {
			report.fail("duplicate_pseudonym", fmt.Sprintf("pseudonym %s ranked twice", entry.PseudonymID))
		}
		seen[entry.PseudonymID] = struct{}{}
		if entry.OverallScore.IsNegative() {
			report.fail("negative_score", fmt.Sprintf("rank %d carries a negative score", entry.Rank))
		}
		if i > 0 && entry.OverallScore.GreaterThan(entries[i-1].OverallScore) {
			report.fail("order_inversion", fmt.Sprintf("rank %d outscores rank %d", entry.Rank, entries[i-1].Rank))
		}
		if !entry.Level.Valid() {
			report.fail("unknown_level", fmt.Sprintf("rank %d carries level %q", entry.Rank, entry.Level))
		}
	}
	return report
}

func (r *IntegrityReport) fail(violation, detail string) {
	r.OK = false
	r.Issues = append(r.Issues, detail)
	snapshotViolationsTotal.WithLabelValues(violation).Inc()
}
