package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/types"
)

// Service is the persistence handle main wires everything else to.
// Postgres is the production driver; sqlite covers local development.
type Service interface {
	AutoMigrateAll() error
	Ping(ctx context.Context) error
	DB() *gorm.DB
}

func New(cfg config.Config, log *logger.Logger) (Service, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return NewSQLiteService(cfg.SQLite.Path, log)
	}
	return NewPostgresService(cfg.Postgres, log)
}

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&types.Identity{},
		&types.ReputationRecord{},
		&types.ActivityEvent{},
		&types.LeaderboardEntry{},
		&types.ProofArtifact{},
	}
}
