package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veilrank/veilrank-backend/internal/cache"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/db"
	"github.com/veilrank/veilrank-backend/internal/handlers"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/middleware"
	"github.com/veilrank/veilrank-backend/internal/observability"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/server"
	"github.com/veilrank/veilrank-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	if shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "veilrank-backend",
		Environment: cfg.AppMode,
	}); shutdownOtel != nil {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(flushCtx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Database (postgres in production, sqlite via DB_DRIVER for dev)
	store, err := db.New(cfg, log)
	if err != nil {
		log.Error("Database init failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err = store.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	theDB := store.DB()

	// Redis is optional; a nil client degrades to store-only reads.
	cacheClient, err := cache.NewClient(cfg.Redis, log)
	if err != nil {
		log.Warn("Redis init failed, continuing without cache", "error", err)
	}
	defer cacheClient.Close()

	// Repos
	log.Info("Setting up repos from main...")
	identityRepo := repos.NewIdentityRepo(theDB, log)
	reputationRepo := repos.NewReputationRepo(theDB, log)
	activityRepo := repos.NewActivityRepo(theDB, log)
	proofRepo := repos.NewProofRepo(theDB, log)
	leaderboardRepo := repos.NewLeaderboardRepo(theDB, log)

	// Services
	log.Info("Setting up services from main...")
	identityService := services.NewIdentityService(theDB, log, identityRepo, cfg.Identity)
	proofGateService := services.NewProofGateService(theDB, log, identityRepo, proofRepo, cacheClient, cfg.Proof)
	leaderboardService := services.NewLeaderboardService(theDB, log, leaderboardRepo, cacheClient, cfg.Leaderboard)
	reputationService := services.NewReputationService(theDB, log, identityRepo, reputationRepo, leaderboardService, proofGateService)
	activityService := services.NewActivityService(theDB, log, identityRepo, activityRepo)
	tokenService := services.NewTokenService(log, cfg.Auth)
	avatarService := services.NewAvatarService(log)

	// Handlers
	log.Info("Setting up handlers from main...")
	identityHandler := handlers.NewIdentityHandler(log, identityService)
	reputationHandler := handlers.NewReputationHandler(log, reputationService)
	activityHandler := handlers.NewActivityHandler(log, activityService)
	leaderboardHandler := handlers.NewLeaderboardHandler(log, leaderboardService, avatarService)
	proofHandler := handlers.NewProofHandler(log, proofGateService)
	healthHandler := handlers.NewHealthHandler(log, store, cacheClient)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, tokenService)
	rateLimit := middleware.NewRateLimitMiddleware(log, cfg.RateLimit)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		AppMode:            cfg.AppMode,
		IdentityHandler:    identityHandler,
		ReputationHandler:  reputationHandler,
		ActivityHandler:    activityHandler,
		LeaderboardHandler: leaderboardHandler,
		ProofHandler:       proofHandler,
		HealthHandler:      healthHandler,
		AuthMiddleware:     authMiddleware,
		RateLimit:          rateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.HTTPPort, "mode", cfg.AppMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, draining connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}
}
