package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:             log.With("handler", "ActivityHandler"),
		activityService: activityService,
	}
}

func (ah *ActivityHandler) Append(c *gin.Context) {
	var req struct {
		IdentityID     uuid.UUID        `json:"identity_id"`
		ActivityType   string           `json:"activity_type"`
		ContractRef    string           `json:"contract_ref"`
		TxRef          string           `json:"tx_ref"`
		Value          *decimal.Decimal `json:"value"`
		ScoreImpact    decimal.Decimal  `json:"score_impact"`
		Metadata       datatypes.JSON   `json:"metadata"`
		EventTimestamp time.Time        `json:"event_timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	event, err := ah.activityService.Append(c.Request.Context(), services.ActivityInput{
		IdentityID:     req.IdentityID,
		ActivityType:   req.ActivityType,
		ContractRef:    req.ContractRef,
		TxRef:          req.TxRef,
		Value:          req.Value,
		ScoreImpact:    req.ScoreImpact,
		Metadata:       req.Metadata,
		EventTimestamp: req.EventTimestamp,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"event": event})
}

// List returns an identity's ledger slice, newest first. A type query
// switches to the per-type view.
func (ah *ActivityHandler) List(c *gin.Context) {
	identityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_identity_id", err)
		return
	}

	if activityType := c.Query("type"); activityType != "" {
		events, err := ah.activityService.ListByIdentityAndType(c.Request.Context(), identityID, activityType)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		RespondOK(c, gin.H{"events": events})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
	}
	events, err := ah.activityService.ListByIdentity(c.Request.Context(), identityID, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}
