package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReputationLevel is the ordered public tier attached to a record.
// Tiers are computed by the external aggregator; the engine only
// validates membership and stores them.
type ReputationLevel string

const (
	LevelBronze ReputationLevel = "bronze"
	LevelSilver ReputationLevel = "silver"
	LevelGold   ReputationLevel = "gold"
)

func (l ReputationLevel) Valid() bool {
	switch l {
	case LevelBronze, LevelSilver, LevelGold:
		return true
	}
	return false
}

// Tier returns the ordinal position of the level, bronze lowest.
// Unknown levels return -1.
func (l ReputationLevel) Tier() int {
	switch l {
	case LevelBronze:
		return 0
	case LevelSilver:
		return 1
	case LevelGold:
		return 2
	}
	return -1
}

// ReputationRecord holds the externally computed scores for one
// identity. At most one record exists per identity; category fields
// default to zero and are only ever merged, never reset, by partial
// updates.
type ReputationRecord struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	IdentityID         uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null;column:identity_id" json:"identity_id"`
	OverallScore       decimal.Decimal `gorm:"type:decimal(24,6);not null;column:overall_score" json:"overall_score"`
	Level              ReputationLevel `gorm:"not null;column:level" json:"level"`
	DaoScore           decimal.Decimal `gorm:"type:decimal(24,6);not null;column:dao_score" json:"dao_score"`
	DefiScore          decimal.Decimal `gorm:"type:decimal(24,6);not null;column:defi_score" json:"defi_score"`
	NftScore           decimal.Decimal `gorm:"type:decimal(24,6);not null;column:nft_score" json:"nft_score"`
	BridgeScore        decimal.Decimal `gorm:"type:decimal(24,6);not null;column:bridge_score" json:"bridge_score"`
	VotingScore        decimal.Decimal `gorm:"type:decimal(24,6);not null;column:voting_score" json:"voting_score"`
	ScamAvoidanceScore decimal.Decimal `gorm:"type:decimal(24,6);not null;column:scam_avoidance_score" json:"scam_avoidance_score"`
	ProofHash          string          `gorm:"column:proof_hash" json:"proof_hash,omitempty"`
	LastCalculated     time.Time       `gorm:"not null;column:last_calculated" json:"last_calculated"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

func (ReputationRecord) TableName() string { return "reputation_record" }

func (r *ReputationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CategoryScores is a partial update: nil fields are left untouched on
// merge, set fields overwrite the stored value.
type CategoryScores struct {
	Dao           *decimal.Decimal `json:"dao,omitempty"`
	Defi          *decimal.Decimal `json:"defi,omitempty"`
	Nft           *decimal.Decimal `json:"nft,omitempty"`
	Bridge        *decimal.Decimal `json:"bridge,omitempty"`
	Voting        *decimal.Decimal `json:"voting,omitempty"`
	ScamAvoidance *decimal.Decimal `json:"scam_avoidance,omitempty"`
}

// Validate rejects negative category scores.
func (c CategoryScores) Validate() error {
	checks := []struct {
		name string
		val  *decimal.Decimal
	}{
		{"dao", c.Dao},
		{"defi", c.Defi},
		{"nft", c.Nft},
		{"bridge", c.Bridge},
		{"voting", c.Voting},
		{"scam_avoidance", c.ScamAvoidance},
	}
	for _, ch := range checks {
		if ch.val != nil && ch.val.IsNegative() {
			return &CategoryScoreError{Category: ch.name, Value: *ch.val}
		}
	}
	return nil
}

// Empty reports whether no category is supplied at all.
func (c CategoryScores) Empty() bool {
	return c.Dao == nil && c.Defi == nil && c.Nft == nil &&
		c.Bridge == nil && c.Voting == nil && c.ScamAvoidance == nil
}

// ApplyTo merges the supplied categories into rec, leaving nil fields
// alone.
func (c CategoryScores) ApplyTo(rec *ReputationRecord) {
	if c.Dao != nil {
		rec.DaoScore = *c.Dao
	}
	if c.Defi != nil {
		rec.DefiScore = *c.Defi
	}
	if c.Nft != nil {
		rec.NftScore = *c.Nft
	}
	if c.Bridge != nil {
		rec.BridgeScore = *c.Bridge
	}
	if c.Voting != nil {
		rec.VotingScore = *c.Voting
	}
	if c.ScamAvoidance != nil {
		rec.ScamAvoidanceScore = *c.ScamAvoidance
	}
}

// CategoryScoreError reports a negative score before any store write.
type CategoryScoreError struct {
	Category string
	Value    decimal.Decimal
}

func (e *CategoryScoreError) Error() string {
	return "category " + e.Category + " score must be non-negative, got " + e.Value.String()
}
