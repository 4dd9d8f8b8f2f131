package repos

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
)

// translateError converts storage failures into the engine's taxonomy
// at the repo boundary so no caller ever inspects driver errors.
// Anything that is neither a miss nor a unique violation is treated as
// the store being unavailable, which callers may retry.
func translateError(err error, notFoundCode, conflictCode string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFoundCode, err)
	case IsUniqueViolation(err):
		return apperr.Conflict(conflictCode, err)
	default:
		return apperr.Unavailable("store_unavailable", err)
	}
}

// IsUniqueViolation recognizes unique-constraint failures across the
// drivers in play: gorm's translated sentinel, raw pgconn errors, and
// the sqlite message used by the dev/test store.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
