package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
)

type ProofHandler struct {
	log              *logger.Logger
	proofGateService services.ProofGateService
}

func NewProofHandler(log *logger.Logger, proofGateService services.ProofGateService) *ProofHandler {
	return &ProofHandler{
		log:              log.With("handler", "ProofHandler"),
		proofGateService: proofGateService,
	}
}

func (ph *ProofHandler) Register(c *gin.Context) {
	var req struct {
		IdentityID      uuid.UUID      `json:"identity_id"`
		ProofHash       string         `json:"proof_hash"`
		Payload         string         `json:"payload"`
		VerificationKey string         `json:"verification_key"`
		PublicInputs    datatypes.JSON `json:"public_inputs"`
		Valid           bool           `json:"valid"`
		ExpiresAt       *time.Time     `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	artifact, err := ph.proofGateService.Register(c.Request.Context(), services.ProofInput{
		IdentityID:      req.IdentityID,
		ProofHash:       req.ProofHash,
		Payload:         req.Payload,
		VerificationKey: req.VerificationKey,
		PublicInputs:    req.PublicInputs,
		Valid:           req.Valid,
		ExpiresAt:       req.ExpiresAt,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"proof": artifact})
}

// GetByHash returns the artifact row. Payload and verification key are
// json:"-" on the model, so they stay out of the response.
func (ph *ProofHandler) GetByHash(c *gin.Context) {
	artifact, err := ph.proofGateService.GetByHash(c.Request.Context(), c.Param("hash"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"proof": artifact})
}

// Check answers the gate question for collaborators: is this hash
// usable right now.
func (ph *ProofHandler) Check(c *gin.Context) {
	valid, err := ph.proofGateService.IsValid(c.Request.Context(), c.Param("hash"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"proof_hash": c.Param("hash"), "valid": valid})
}
