package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veilrank/veilrank-backend/internal/cache"
	"github.com/veilrank/veilrank-backend/internal/logger"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Pinger is what readiness needs from the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	log   *logger.Logger
	db    Pinger
	cache *cache.Client
}

func NewHealthHandler(log *logger.Logger, db Pinger, cacheClient *cache.Client) *HealthHandler {
	return &HealthHandler{
		log:   log.With("handler", "HealthHandler"),
		db:    db,
		cache: cacheClient,
	}
}

// Ready reports 503 until every configured dependency answers. An
// unconfigured cache is skipped, not failed.
func (hh *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := hh.db.Ping(ctx); err != nil {
		hh.log.Warn("Readiness probe failed on store", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "store": err.Error()})
		return
	}
	if hh.cache.Enabled() {
		if err := hh.cache.Ping(ctx); err != nil {
			hh.log.Warn("Readiness probe failed on cache", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "cache": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
