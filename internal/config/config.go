package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

type Config struct {
	AppMode  string
	HTTPPort string
	DBDriver string

	Postgres    PostgresConfig
	SQLite      SQLiteConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Identity    IdentityConfig
	Leaderboard LeaderboardConfig
	Proof       ProofConfig
	RateLimit   RateLimitConfig
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLiteConfig backs the dev fallback driver; Path is the database
// file, or a :memory: DSN for throwaway runs.
type SQLiteConfig struct {
	Path string
}

// RedisConfig is optional; an empty Addr disables caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type AuthConfig struct {
	ServiceTokenSecret string
	ServiceTokenTTL    time.Duration
}

type IdentityConfig struct {
	// PseudonymMaxAttempts bounds re-rolls on pseudonym collision
	// before the registration is rejected outright.
	PseudonymMaxAttempts int
}

type LeaderboardConfig struct {
	// RebuildMode is "sync" (rebuild completes before the score write
	// returns) or "async" (rebuild runs on a background goroutine).
	RebuildMode  string
	TopCacheTTL  time.Duration
	DefaultLimit int
	MaxLimit     int
}

type ProofConfig struct {
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

const (
	RebuildModeSync  = "sync"
	RebuildModeAsync = "async"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// fileConfig mirrors Config for the optional YAML file named by
// CONFIG_PATH. File values act as defaults; environment variables
// always win.
type fileConfig struct {
	AppMode  string `yaml:"app_mode"`
	HTTPPort string `yaml:"http_port"`
	DBDriver string `yaml:"db_driver"`

	Postgres struct {
		Host         string `yaml:"host"`
		Port         string `yaml:"port"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		Name         string `yaml:"name"`
		SSLMode      string `yaml:"sslmode"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"postgres"`

	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		ServiceTokenSecret string `yaml:"service_token_secret"`
		ServiceTokenTTLSec int    `yaml:"service_token_ttl_seconds"`
	} `yaml:"auth"`

	Leaderboard struct {
		RebuildMode    string `yaml:"rebuild_mode"`
		TopCacheTTLSec int    `yaml:"top_cache_ttl_seconds"`
		DefaultLimit   int    `yaml:"default_limit"`
		MaxLimit       int    `yaml:"max_limit"`
	} `yaml:"leaderboard"`

	Proof struct {
		CacheTTLSec int `yaml:"cache_ttl_seconds"`
	} `yaml:"proof"`

	RateLimit struct {
		RPS   int `yaml:"rps"`
		Burst int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(log *logger.Logger) (Config, error) {
	var f fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg := Config{
		AppMode:  utils.GetEnv("APP_MODE", defStr(f.AppMode, "dev"), log),
		HTTPPort: utils.GetEnv("HTTP_PORT", defStr(f.HTTPPort, "8080"), log),
		DBDriver: strings.ToLower(utils.GetEnv("DB_DRIVER", defStr(f.DBDriver, DriverPostgres), log)),
		Postgres: PostgresConfig{
			Host:            utils.GetEnv("POSTGRES_HOST", defStr(f.Postgres.Host, "localhost"), log),
			Port:            utils.GetEnv("POSTGRES_PORT", defStr(f.Postgres.Port, "5432"), log),
			User:            utils.GetEnv("POSTGRES_USER", defStr(f.Postgres.User, "postgres"), log),
			Password:        utils.GetEnv("POSTGRES_PASSWORD", f.Postgres.Password, log),
			Name:            utils.GetEnv("POSTGRES_NAME", defStr(f.Postgres.Name, "veilrank"), log),
			SSLMode:         utils.GetEnv("POSTGRES_SSLMODE", defStr(f.Postgres.SSLMode, "disable"), log),
			MaxOpenConns:    utils.GetEnvAsInt("POSTGRES_MAX_OPEN_CONNS", defInt(f.Postgres.MaxOpenConns, 25), log),
			MaxIdleConns:    utils.GetEnvAsInt("POSTGRES_MAX_IDLE_CONNS", defInt(f.Postgres.MaxIdleConns, 5), log),
			ConnMaxLifetime: utils.GetEnvAsSeconds("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800, log),
		},
		SQLite: SQLiteConfig{
			Path: utils.GetEnv("SQLITE_PATH", defStr(f.SQLite.Path, "veilrank.db"), log),
		},
		Redis: RedisConfig{
			Addr:     utils.GetEnv("REDIS_ADDR", f.Redis.Addr, log),
			Password: utils.GetEnv("REDIS_PASSWORD", f.Redis.Password, log),
			DB:       utils.GetEnvAsInt("REDIS_DB", f.Redis.DB, log),
		},
		Auth: AuthConfig{
			ServiceTokenSecret: utils.GetEnv("SERVICE_TOKEN_SECRET", defStr(f.Auth.ServiceTokenSecret, "defaultsecret"), log),
			ServiceTokenTTL:    utils.GetEnvAsSeconds("SERVICE_TOKEN_TTL", defInt(f.Auth.ServiceTokenTTLSec, 3600), log),
		},
		Identity: IdentityConfig{
			PseudonymMaxAttempts: utils.GetEnvAsInt("PSEUDONYM_MAX_ATTEMPTS", 5, log),
		},
		Leaderboard: LeaderboardConfig{
			RebuildMode:  strings.ToLower(utils.GetEnv("LEADERBOARD_REBUILD_MODE", defStr(f.Leaderboard.RebuildMode, RebuildModeSync), log)),
			TopCacheTTL:  utils.GetEnvAsSeconds("LEADERBOARD_TOP_CACHE_TTL_SECONDS", defInt(f.Leaderboard.TopCacheTTLSec, 15), log),
			DefaultLimit: utils.GetEnvAsInt("LEADERBOARD_DEFAULT_LIMIT", defInt(f.Leaderboard.DefaultLimit, 100), log),
			MaxLimit:     utils.GetEnvAsInt("LEADERBOARD_MAX_LIMIT", defInt(f.Leaderboard.MaxLimit, 500), log),
		},
		Proof: ProofConfig{
			CacheTTL: utils.GetEnvAsSeconds("PROOF_CACHE_TTL_SECONDS", defInt(f.Proof.CacheTTLSec, 30), log),
		},
		RateLimit: RateLimitConfig{
			RPS:   utils.GetEnvAsInt("RATE_LIMIT_RPS", defInt(f.RateLimit.RPS, 20), log),
			Burst: utils.GetEnvAsInt("RATE_LIMIT_BURST", defInt(f.RateLimit.Burst, 40), log),
		},
	}

	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q, got %q",
			DriverPostgres, DriverSQLite, cfg.DBDriver)
	}
	if cfg.Leaderboard.RebuildMode != RebuildModeSync && cfg.Leaderboard.RebuildMode != RebuildModeAsync {
		return Config{}, fmt.Errorf("LEADERBOARD_REBUILD_MODE must be %q or %q, got %q",
			RebuildModeSync, RebuildModeAsync, cfg.Leaderboard.RebuildMode)
	}
	if cfg.Leaderboard.DefaultLimit < 1 || cfg.Leaderboard.DefaultLimit > cfg.Leaderboard.MaxLimit {
		return Config{}, fmt.Errorf("leaderboard default limit %d out of range [1,%d]",
			cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit)
	}
	return cfg, nil
}

func defStr(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func defInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

// DSN assembles the connection string the way the gorm pgx driver
// expects it.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}
