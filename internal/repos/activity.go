package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

// ActivityRepo is append-only: there is deliberately no update or
// delete method. Reads order by event timestamp, newest first.
type ActivityRepo interface {
	Append(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) (*types.ActivityEvent, error)
	ListByIdentity(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
	ListByIdentityAndType(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, activityType string) ([]*types.ActivityEvent, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

func (ar *activityRepo) Append(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) (*types.ActivityEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		return nil, translateError(err, "activity_not_found", "activity_exists")
	}
	return event, nil
}

func (ar *activityRepo) ListByIdentity(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActivityEvent
	q := transaction.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("event_timestamp DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, translateError(err, "activity_not_found", "activity_exists")
	}
	return results, nil
}

func (ar *activityRepo) ListByIdentityAndType(ctx context.Context, tx *gorm.DB, identityID uuid.UUID, activityType string) ([]*types.ActivityEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.ActivityEvent
	if err := transaction.WithContext(ctx).
		Where("identity_id = ? AND activity_type = ?", identityID, activityType).
		Order("event_timestamp DESC, created_at DESC").
		Find(&results).Error; err != nil {
		return nil, translateError(err, "activity_not_found", "activity_exists")
	}
	return results, nil
}
