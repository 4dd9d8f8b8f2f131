package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
)

type LeaderboardHandler struct {
	log                *logger.Logger
	leaderboardService services.LeaderboardService
	avatarService      services.AvatarService
}

func NewLeaderboardHandler(log *logger.Logger, leaderboardService services.LeaderboardService, avatarService services.AvatarService) *LeaderboardHandler {
	return &LeaderboardHandler{
		log:                log.With("handler", "LeaderboardHandler"),
		leaderboardService: leaderboardService,
		avatarService:      avatarService,
	}
}

// Top serves the anonymous ranking: pseudonym, level, overall score,
// chain, rank. Nothing wallet-shaped ever appears here.
func (lh *LeaderboardHandler) Top(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = parsed
	}

	entries, err := lh.leaderboardService.Top(c.Request.Context(), limit, c.Query("chain"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": entries})
}

func (lh *LeaderboardHandler) Rank(c *gin.Context) {
	rank, err := lh.leaderboardService.PositionOf(c.Request.Context(), c.Param("pseudonym"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"pseudonym": c.Param("pseudonym"), "rank": rank})
}

// Avatar renders the deterministic identicon for a pseudonym. The image
// depends only on the handle, so clients may cache it hard.
func (lh *LeaderboardHandler) Avatar(c *gin.Context) {
	png, err := lh.avatarService.Render(c.Param("pseudonym"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, "image/png", png)
}

// Rebuild lets operators force a snapshot refresh.
func (lh *LeaderboardHandler) Rebuild(c *gin.Context) {
	if err := lh.leaderboardService.Rebuild(c.Request.Context()); err != nil {
		RespondAppError(c, err)
		return
	}
	size, err := lh.leaderboardService.Size(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"rebuilt": true, "entries": size})
}

// Integrity reports whether the current snapshot still holds the
// ranking invariants (dense ranks, unique handles, sane scores).
func (lh *LeaderboardHandler) Integrity(c *gin.Context) {
	report, err := lh.leaderboardService.VerifyIntegrity(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	status := http.StatusOK
	if !report.OK {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"integrity": report})
}
