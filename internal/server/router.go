package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veilrank/veilrank-backend/internal/handlers"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/middleware"
	"github.com/veilrank/veilrank-backend/internal/observability"
)

type RouterConfig struct {
	Log                *logger.Logger
	AppMode            string
	IdentityHandler    *handlers.IdentityHandler
	ReputationHandler  *handlers.ReputationHandler
	ActivityHandler    *handlers.ActivityHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	ProofHandler       *handlers.ProofHandler
	HealthHandler      *handlers.HealthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	RateLimit          *middleware.RateLimitMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.AppMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AttachTraceContext())
	router.Use(otelgin.Middleware("veilrank-backend"))
	router.Use(middleware.RequestObserver(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/readyz", cfg.HealthHandler.Ready)
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	api := router.Group("/api")
	api.Use(cfg.RateLimit.Limit())
	{
		// Identity
		api.POST("/identities", cfg.IdentityHandler.Register)
		api.GET("/identities/:wallet", cfg.IdentityHandler.GetByWallet)
		// Reputation (proof gated)
		api.GET("/reputation/:wallet", cfg.ReputationHandler.Disclose)
		// Leaderboard
		api.GET("/leaderboard", cfg.LeaderboardHandler.Top)
		api.GET("/leaderboard/rank/:pseudonym", cfg.LeaderboardHandler.Rank)
		api.GET("/leaderboard/avatar/:pseudonym", cfg.LeaderboardHandler.Avatar)
	}

	// ===============
	// || Internal  ||
	// ===============
	internal := router.Group("/internal")
	auth := cfg.AuthMiddleware
	{
		// Identity
		internal.GET("/identities/by-pseudonym/:pseudonym",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.IdentityHandler.GetByPseudonym)
		internal.PATCH("/identities/:id",
			auth.RequireServiceToken(middleware.ScopeIdentityWrite), cfg.IdentityHandler.AttachMetadata)
		// Reputation
		internal.PUT("/reputation/:id",
			auth.RequireServiceToken(middleware.ScopeReputationWrite), cfg.ReputationHandler.UpsertScore)
		internal.PATCH("/reputation/:id/categories",
			auth.RequireServiceToken(middleware.ScopeReputationWrite), cfg.ReputationHandler.UpdateCategories)
		internal.GET("/reputation/:id",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.ReputationHandler.GetByIdentity)
		// Activity ledger
		internal.POST("/activity",
			auth.RequireServiceToken(middleware.ScopeLedgerWrite), cfg.ActivityHandler.Append)
		internal.GET("/activity/:id",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.ActivityHandler.List)
		// Proofs
		internal.POST("/proofs",
			auth.RequireServiceToken(middleware.ScopeProofWrite), cfg.ProofHandler.Register)
		internal.GET("/proofs/:hash",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.ProofHandler.GetByHash)
		internal.GET("/proofs/:hash/valid",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.ProofHandler.Check)
		// Leaderboard maintenance
		internal.POST("/leaderboard/rebuild",
			auth.RequireServiceToken(middleware.ScopeLeaderboardRebuild), cfg.LeaderboardHandler.Rebuild)
		internal.GET("/leaderboard/integrity",
			auth.RequireServiceToken(middleware.ScopeInternalRead), cfg.LeaderboardHandler.Integrity)
	}

	return router
}
