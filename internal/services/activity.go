package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/types"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityInput is one on-chain event attributed to an identity by the
// scoring pipeline. A zero EventTimestamp means "now".
type ActivityInput struct {
	IdentityID     uuid.UUID
	ActivityType   string
	ContractRef    string
	TxRef          string
	Value          *decimal.Decimal
	ScoreImpact    decimal.Decimal
	Metadata       datatypes.JSON
	EventTimestamp time.Time
}

// ActivityService appends to and reads the per-identity event ledger.
// The ledger is append-only: nothing here updates or deletes rows, and
// no repo method exists that could.
type ActivityService interface {
	Append(ctx context.Context, input ActivityInput) (*types.ActivityEvent, error)
	ListByIdentity(ctx context.Context, identityID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
	ListByIdentityAndType(ctx context.Context, identityID uuid.UUID, activityType string) ([]*types.ActivityEvent, error)
}

type activityService struct {
	db           *gorm.DB
	log          *logger.Logger
	identityRepo repos.IdentityRepo
	activityRepo repos.ActivityRepo
}

func NewActivityService(db *gorm.DB, log *logger.Logger, identityRepo repos.IdentityRepo, activityRepo repos.ActivityRepo) ActivityService {
	serviceLog := log.With("service", "ActivityService")
	return &activityService{db: db, log: serviceLog, identityRepo: identityRepo, activityRepo: activityRepo}
}

func (as *activityService) Append(ctx context.Context, input ActivityInput) (*types.ActivityEvent, error) {
	input.ActivityType = strings.ToLower(strings.TrimSpace(input.ActivityType))
	if input.ActivityType == "" {
		return nil, apperr.Validationf("missing_activity_type", "activity type is required")
	}

	event := &types.ActivityEvent{
		IdentityID:     input.IdentityID,
		ActivityType:   input.ActivityType,
		ContractRef:    strings.TrimSpace(input.ContractRef),
		TxRef:          strings.TrimSpace(input.TxRef),
		Value:          input.Value,
		ScoreImpact:    input.ScoreImpact,
		Metadata:       input.Metadata,
		EventTimestamp: input.EventTimestamp,
	}

	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.identityRepo.GetByID(ctx, tx, input.IdentityID); err != nil {
			return err
		}
		_, err := as.activityRepo.Append(ctx, tx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.ActivityAppendsTotal.Inc()
	as.log.Debug("Appended activity event",
		"identity_id", input.IdentityID,
		"activity_type", input.ActivityType,
		"tx_ref", event.TxRef)
	return event, nil
}

func (as *activityService) ListByIdentity(ctx context.Context, identityID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if _, err := as.identityRepo.GetByID(ctx, nil, identityID); err != nil {
		return nil, err
	}
	return as.activityRepo.ListByIdentity(ctx, nil, identityID, limit)
}

func (as *activityService) ListByIdentityAndType(ctx context.Context, identityID uuid.UUID, activityType string) ([]*types.ActivityEvent, error) {
	activityType = strings.ToLower(strings.TrimSpace(activityType))
	if activityType == "" {
		return nil, apperr.Validationf("missing_activity_type", "activity type is required")
	}
	if _, err := as.identityRepo.GetByID(ctx, nil, identityID); err != nil {
		return nil, err
	}
	return as.activityRepo.ListByIdentityAndType(ctx, nil, identityID, activityType)
}
