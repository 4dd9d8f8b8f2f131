package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEvent is one scored on-chain action. Rows are append-only:
// no update or delete path exists anywhere in the engine, and there is
// deliberately no UpdatedAt column. Reads order by the event timestamp,
// not insertion order.
type ActivityEvent struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	IdentityID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_activity_event_identity_ts,priority:1;column:identity_id" json:"identity_id"`
	ActivityType   string           `gorm:"not null;index;column:activity_type" json:"activity_type"`
	ContractRef    string           `gorm:"column:contract_ref" json:"contract_ref,omitempty"`
	TxRef          string           `gorm:"column:tx_ref" json:"tx_ref,omitempty"`
	Value          *decimal.Decimal `gorm:"type:decimal(24,6);column:value" json:"value,omitempty"`
	ScoreImpact    decimal.Decimal  `gorm:"type:decimal(24,6);not null;column:score_impact" json:"score_impact"`
	Metadata       datatypes.JSON   `gorm:"column:metadata" json:"metadata,omitempty"`
	EventTimestamp time.Time        `gorm:"not null;index:idx_activity_event_identity_ts,priority:2;column:event_timestamp" json:"event_timestamp"`
	CreatedAt      time.Time        `gorm:"not null" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "activity_event" }

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EventTimestamp.IsZero() {
		e.EventTimestamp = time.Now().UTC()
	}
	return nil
}
