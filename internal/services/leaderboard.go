package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/cache"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/types"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

// LeaderboardService maintains the anonymous ranking snapshot. Rebuild
// replaces the whole snapshot in one transaction so readers either see
// the previous ranking or the new one, never a mix. Concurrent rebuild
// requests coalesce onto a single run.
type LeaderboardService interface {
	Rebuild(ctx context.Context) error
	// TriggerRebuild runs Rebuild according to the configured mode:
	// inline for sync, on a detached goroutine for async.
	TriggerRebuild(ctx context.Context) error
	Top(ctx context.Context, limit int, chain string) ([]*types.LeaderboardEntry, error)
	PositionOf(ctx context.Context, pseudonymID string) (int, error)
	Size(ctx context.Context) (int64, error)
	// VerifyIntegrity re-reads the published snapshot and checks the
	// ranking invariants hold end to end.
	VerifyIntegrity(ctx context.Context) (observability.IntegrityReport, error)
}

type leaderboardService struct {
	db              *gorm.DB
	log             *logger.Logger
	leaderboardRepo repos.LeaderboardRepo
	cache           *cache.Client
	cfg             config.LeaderboardConfig

	rebuilds singleflight.Group
}

func NewLeaderboardService(
	db *gorm.DB,
	log *logger.Logger,
	leaderboardRepo repos.LeaderboardRepo,
	cacheClient *cache.Client,
	cfg config.LeaderboardConfig,
) LeaderboardService {
	serviceLog := log.With("service", "LeaderboardService")
	return &leaderboardService{
		db:              db,
		log:             serviceLog,
		leaderboardRepo: leaderboardRepo,
		cache:           cacheClient,
		cfg:             cfg,
	}
}

func (ls *leaderboardService) Rebuild(ctx context.Context) error {
	_, err, shared := ls.rebuilds.Do("rebuild", func() (any, error) {
		return nil, ls.rebuildOnce(ctx)
	})
	if shared {
		ls.log.Debug("Coalesced leaderboard rebuild request")
	}
	return err
}

func (ls *leaderboardService) rebuildOnce(ctx context.Context) error {
	start := time.Now()
	var size int

	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ls.leaderboardRepo.AcquireRebuildLock(ctx, tx); err != nil {
			return err
		}
		rows, err := ls.leaderboardRepo.SourceRows(ctx, tx)
		if err != nil {
			return err
		}
		// Rows arrive in final order; ranks are dense 1..N with no gaps
		// and no duplicates.
		for i, row := range rows {
			row.Rank = i + 1
		}
		if err := ls.leaderboardRepo.ReplaceAll(ctx, tx, rows); err != nil {
			return err
		}
		size = len(rows)
		return nil
	})
	if err != nil {
		observability.RebuildsTotal.WithLabelValues("error").Inc()
		return err
	}

	observability.RebuildsTotal.WithLabelValues("ok").Inc()
	observability.RebuildDuration.Observe(time.Since(start).Seconds())
	observability.LeaderboardSize.Set(float64(size))

	if ls.cache.Enabled() {
		if err := ls.cache.Incr(ctx, cache.LeaderboardGenKey()); err != nil {
			ls.log.Warn("Failed to bump leaderboard cache generation", "error", err)
		}
	}

	ls.log.Info("Rebuilt leaderboard snapshot",
		"entries", size,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (ls *leaderboardService) TriggerRebuild(ctx context.Context) error {
	if ls.cfg.RebuildMode == config.RebuildModeAsync {
		go func() {
			// Detach from the request context so an early client
			// disconnect cannot abort the refresh.
			bctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := ls.Rebuild(bctx); err != nil {
				ls.log.Error("Async leaderboard rebuild failed", "error", err)
			}
		}()
		return nil
	}
	return ls.Rebuild(ctx)
}

func (ls *leaderboardService) Top(ctx context.Context, limit int, chain string) ([]*types.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = ls.cfg.DefaultLimit
	}
	if limit > ls.cfg.MaxLimit {
		limit = ls.cfg.MaxLimit
	}
	chain = strings.ToLower(strings.TrimSpace(chain))

	cacheKey := ""
	if ls.cache.Enabled() {
		gen, _, err := ls.cache.GetInt64(ctx, cache.LeaderboardGenKey())
		if err != nil {
			ls.log.Warn("Leaderboard cache unavailable, serving from store", "error", err)
		} else {
			cacheKey = cache.LeaderboardTopKey(gen, limit, chain)
			var cached []*types.LeaderboardEntry
			found, err := ls.cache.GetJSON(ctx, cacheKey, &cached)
			if err != nil {
				ls.log.Warn("Leaderboard cache read failed", "error", err)
			} else if found {
				observability.CacheRequestsTotal.WithLabelValues("leaderboard", "hit").Inc()
				return cached, nil
			} else {
				observability.CacheRequestsTotal.WithLabelValues("leaderboard", "miss").Inc()
			}
		}
	}

	entries, err := ls.leaderboardRepo.Top(ctx, nil, limit, chain)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if err := ls.cache.SetJSON(ctx, cacheKey, entries, ls.cfg.TopCacheTTL); err != nil {
			ls.log.Warn("Leaderboard cache write failed", "error", err)
		}
	}
	return entries, nil
}

func (ls *leaderboardService) PositionOf(ctx context.Context, pseudonymID string) (int, error) {
	pseudonymID = strings.TrimSpace(pseudonymID)
	if !utils.IsPseudonym(pseudonymID) {
		return 0, apperr.Validationf("invalid_pseudonym", "malformed pseudonym handle")
	}
	return ls.leaderboardRepo.PositionOf(ctx, nil, pseudonymID)
}

func (ls *leaderboardService) Size(ctx context.Context) (int64, error) {
	return ls.leaderboardRepo.Count(ctx, nil)
}

func (ls *leaderboardService) VerifyIntegrity(ctx context.Context) (observability.IntegrityReport, error) {
	count, err := ls.leaderboardRepo.Count(ctx, nil)
	if err != nil {
		return observability.IntegrityReport{}, err
	}
	var entries []*types.LeaderboardEntry
	if count > 0 {
		entries, err = ls.leaderboardRepo.Top(ctx, nil, int(count), "")
		if err != nil {
			return observability.IntegrityReport{}, err
		}
	}

	report := observability.VerifyLeaderboardSnapshot(entries)
	if !report.OK {
		ls.log.Warn("Leaderboard snapshot failed integrity check",
			"entries", report.Entries,
			"issues", len(report.Issues))
	}
	return report, nil
}
