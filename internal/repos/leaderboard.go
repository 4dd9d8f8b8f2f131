package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

// rebuildLockKey is the advisory lock id serializing snapshot rebuilds
// across processes. ASCII "veilrank" as an int64.
const rebuildLockKey int64 = 0x7665696c72616e6b

type LeaderboardRepo interface {
	// AcquireRebuildLock blocks until this transaction holds the
	// rebuild lock. The lock releases with the transaction, so it must
	// be called inside one. Non-postgres stores fall back to plain
	// transaction atomicity.
	AcquireRebuildLock(ctx context.Context, tx *gorm.DB) error
	// SourceRows selects the eligible population (identities holding a
	// pseudonym and a reputation record) already in final rank order:
	// score descending, registration order breaking ties.
	SourceRows(ctx context.Context, tx *gorm.DB) ([]*types.LeaderboardEntry, error)
	// ReplaceAll deletes the current snapshot and inserts the new one.
	// Callers must wrap it in a transaction together with
	// AcquireRebuildLock so readers never observe a partial snapshot.
	ReplaceAll(ctx context.Context, tx *gorm.DB, entries []*types.LeaderboardEntry) error
	Top(ctx context.Context, tx *gorm.DB, limit int, chain string) ([]*types.LeaderboardEntry, error)
	PositionOf(ctx context.Context, tx *gorm.DB, pseudonymID string) (int, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type leaderboardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeaderboardRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardRepo {
	repoLog := baseLog.With("repo", "LeaderboardRepo")
	return &leaderboardRepo{db: db, log: repoLog}
}

func (lr *leaderboardRepo) AcquireRebuildLock(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if transaction.Dialector.Name() != "postgres" {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?)", rebuildLockKey).Error; err != nil {
		return translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	return nil
}

func (lr *leaderboardRepo) SourceRows(ctx context.Context, tx *gorm.DB) ([]*types.LeaderboardEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var rows []*types.LeaderboardEntry
	if err := transaction.WithContext(ctx).
		Table("identity AS i").
		Select("i.pseudonym_id AS pseudonym_id, r.level AS level, r.overall_score AS overall_score, i.chain AS chain").
		Joins("JOIN reputation_record r ON r.identity_id = i.id").
		Where("i.pseudonym_id IS NOT NULL").
		Order("r.overall_score DESC, i.created_at ASC, i.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	return rows, nil
}

func (lr *leaderboardRepo) ReplaceAll(ctx context.Context, tx *gorm.DB, entries []*types.LeaderboardEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Exec(`DELETE FROM "leaderboard_entry"`).Error; err != nil {
		return translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	if len(entries) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		CreateInBatches(entries, 500).Error; err != nil {
		return translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	return nil
}

func (lr *leaderboardRepo) Top(ctx context.Context, tx *gorm.DB, limit int, chain string) ([]*types.LeaderboardEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	q := transaction.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "rank"}}).
		Limit(limit)
	if chain != "" {
		q = q.Where("chain = ?", chain)
	}

	var results []*types.LeaderboardEntry
	if err := q.Find(&results).Error; err != nil {
		return nil, translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	return results, nil
}

func (lr *leaderboardRepo) PositionOf(ctx context.Context, tx *gorm.DB, pseudonymID string) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var result types.LeaderboardEntry
	if err := transaction.WithContext(ctx).
		Select("rank").
		Where("pseudonym_id = ?", pseudonymID).
		Take(&result).Error; err != nil {
		return 0, translateError(err, "rank_not_found", "leaderboard_conflict")
	}
	return result.Rank, nil
}

func (lr *leaderboardRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LeaderboardEntry{}).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "leaderboard_not_found", "leaderboard_conflict")
	}
	return count, nil
}
