package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
	"github.com/veilrank/veilrank-backend/internal/types"
)

type IdentityHandler struct {
	log             *logger.Logger
	identityService services.IdentityService
}

func NewIdentityHandler(log *logger.Logger, identityService services.IdentityService) *IdentityHandler {
	return &IdentityHandler{
		log:             log.With("handler", "IdentityHandler"),
		identityService: identityService,
	}
}

// identityView is the public projection of an identity. The pseudonym
// is deliberately absent: the wallet-to-pseudonym binding never crosses
// the public surface, in either direction.
type identityView struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Chain         string    `json:"chain"`
	PublicKey     string    `json:"public_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newIdentityView(identity *types.Identity) identityView {
	return identityView{
		ID:            identity.ID,
		WalletAddress: identity.WalletAddress,
		Chain:         identity.Chain,
		PublicKey:     identity.PublicKey,
		CreatedAt:     identity.CreatedAt,
	}
}

// Register binds a wallet to a fresh pseudonym. The response includes
// the pseudonym: the registrant is the wallet holder, and this is the
// only public exchange that hands the handle over.
func (ih *IdentityHandler) Register(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Chain         string `json:"chain"`
		PublicKey     string `json:"public_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	identity, err := ih.identityService.Register(c.Request.Context(), req.WalletAddress, req.Chain, req.PublicKey)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"identity": identity})
}

// GetByWallet is the public read: pseudonym redacted.
func (ih *IdentityHandler) GetByWallet(c *gin.Context) {
	identity, err := ih.identityService.LookupByWallet(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"identity": newIdentityView(identity)})
}

// GetByPseudonym resolves a handle back to its identity. Internal
// surface only; exposing this publicly would break anonymity.
func (ih *IdentityHandler) GetByPseudonym(c *gin.Context) {
	identity, err := ih.identityService.LookupByPseudonym(c.Request.Context(), c.Param("pseudonym"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"identity": identity})
}

func (ih *IdentityHandler) AttachMetadata(c *gin.Context) {
	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_identity_id", err)
		return
	}
	var patch types.IdentityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	identity, err := ih.identityService.AttachMetadata(c.Request.Context(), identityID, patch)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"identity": identity})
}
