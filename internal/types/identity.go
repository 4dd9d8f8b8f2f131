package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity binds a wallet address to its pseudonymous public handle.
// The wallet address and pseudonym are immutable once set; only the
// public key may be patched afterwards. Identities are never deleted.
type Identity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null;column:wallet_address" json:"wallet_address"`
	Chain         string    `gorm:"not null;column:chain" json:"chain"`
	PublicKey     string    `gorm:"column:public_key" json:"public_key,omitempty"`
	PseudonymID   *string   `gorm:"uniqueIndex;column:pseudonym_id" json:"pseudonym_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Identity) TableName() string { return "identity" }

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Pseudonym returns the handle or "" when none has been issued yet.
func (i *Identity) Pseudonym() string {
	if i.PseudonymID == nil {
		return ""
	}
	return *i.PseudonymID
}

// IdentityPatch carries the fields an update request may send. Wallet
// address and pseudonym are listed only so attempts to change them can
// be rejected explicitly instead of being silently dropped.
type IdentityPatch struct {
	PublicKey     *string `json:"public_key,omitempty"`
	WalletAddress *string `json:"wallet_address,omitempty"`
	PseudonymID   *string `json:"pseudonym_id,omitempty"`
}
