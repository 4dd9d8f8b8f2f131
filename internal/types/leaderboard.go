package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaderboardEntry is one row of the derived ranking snapshot. The
// table is replaced wholesale on every rebuild and carries nothing
// that could tie an entry back to a wallet or internal identity id.
type LeaderboardEntry struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PseudonymID  string          `gorm:"uniqueIndex;not null;column:pseudonym_id" json:"pseudonym_id"`
	Level        ReputationLevel `gorm:"not null;column:level" json:"level"`
	OverallScore decimal.Decimal `gorm:"type:decimal(24,6);not null;column:overall_score" json:"overall_score"`
	Chain        string          `gorm:"not null;column:chain" json:"chain"`
	Rank         int             `gorm:"uniqueIndex;not null;column:rank" json:"rank"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

func (LeaderboardEntry) TableName() string { return "leaderboard_entry" }

func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
