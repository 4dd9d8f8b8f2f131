package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProofArtifact is an externally issued disclosure credential keyed by
// its hash. The engine stores and evaluates artifacts; it never mints
// them. A given hash is written exactly once. Payload and verification
// key are opaque blobs and are never serialized back out.
type ProofArtifact struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IdentityID      uuid.UUID      `gorm:"type:uuid;not null;index;column:identity_id" json:"identity_id"`
	ProofHash       string         `gorm:"uniqueIndex;not null;column:proof_hash" json:"proof_hash"`
	Payload         string         `gorm:"column:payload" json:"-"`
	VerificationKey string         `gorm:"column:verification_key" json:"-"`
	PublicInputs    datatypes.JSON `gorm:"column:public_inputs" json:"public_inputs,omitempty"`
	Valid           bool           `gorm:"not null;column:valid" json:"valid"`
	ExpiresAt       *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
}

func (ProofArtifact) TableName() string { return "proof_artifact" }

func (p *ProofArtifact) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CurrentlyValid evaluates the artifact's gate state at the supplied
// instant: the validity flag must be set and any expiry must be
// strictly in the future. An expiry equal to now is already expired.
func (p *ProofArtifact) CurrentlyValid(now time.Time) bool {
	if p == nil || !p.Valid {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return true
}
