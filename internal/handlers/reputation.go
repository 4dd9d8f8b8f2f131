package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
	"github.com/veilrank/veilrank-backend/internal/types"
)

type ReputationHandler struct {
	log               *logger.Logger
	reputationService services.ReputationService
}

func NewReputationHandler(log *logger.Logger, reputationService services.ReputationService) *ReputationHandler {
	return &ReputationHandler{
		log:               log.With("handler", "ReputationHandler"),
		reputationService: reputationService,
	}
}

// Disclose is the public, proof-gated read of a wallet's true record.
// Without a currently valid proof owned by that wallet the answer is
// 403, and the same 403 regardless of which check failed.
func (rh *ReputationHandler) Disclose(c *gin.Context) {
	record, err := rh.reputationService.Disclose(c.Request.Context(), c.Param("wallet"), c.Query("proof"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"reputation": record})
}

// UpsertScore ingests a full score snapshot from the scoring pipeline.
func (rh *ReputationHandler) UpsertScore(c *gin.Context) {
	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_identity_id", err)
		return
	}
	var req struct {
		Categories   types.CategoryScores `json:"categories"`
		OverallScore decimal.Decimal      `json:"overall_score"`
		Level        string               `json:"level"`
		ProofHash    string               `json:"proof_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	record, err := rh.reputationService.UpsertScore(c.Request.Context(), identityID, services.ScoreUpsertInput{
		Categories:   req.Categories,
		OverallScore: req.OverallScore,
		Level:        types.ReputationLevel(req.Level),
		ProofHash:    req.ProofHash,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"reputation": record})
}

// UpdateCategories merges a partial category regrade into an existing
// record; overall score and level stay as the last full snapshot set
// them.
func (rh *ReputationHandler) UpdateCategories(c *gin.Context) {
	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_identity_id", err)
		return
	}
	var categories types.CategoryScores
	if err := c.ShouldBindJSON(&categories); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	record, err := rh.reputationService.UpdateCategories(c.Request.Context(), identityID, categories)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"reputation": record})
}

// GetByIdentity is the ungated internal read.
func (rh *ReputationHandler) GetByIdentity(c *gin.Context) {
	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_identity_id", err)
		return
	}
	record, err := rh.reputationService.GetByIdentity(c.Request.Context(), identityID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"reputation": record})
}
