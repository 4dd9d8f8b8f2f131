package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
)

// Client wraps the optional Redis connection. A nil *Client is a valid
// handle with caching disabled, so callers never branch on
// configuration themselves.
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewClient connects to Redis when an address is configured and
// returns (nil, nil) otherwise.
func NewClient(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	clientLog := log.With("client", "RedisCache")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	clientLog.Info("Connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return &Client{rdb: rdb, log: clientLog}, nil
}

func (c *Client) Enabled() bool { return c != nil && c.rdb != nil }

// GetJSON loads key into dest, reporting whether it was present.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *Client) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	if !c.Enabled() {
		return 0, false, nil
	}
	v, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (c *Client) Incr(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Incr(ctx, key).Err()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Key layout. The leaderboard uses a generation counter bumped on every
// rebuild so stale top-N entries orphan immediately and lapse via TTL,
// with no SCAN-based invalidation.
const (
	leaderboardGenKey = "veilrank:leaderboard:gen"
	topKeyFormat      = "veilrank:leaderboard:%d:top:%d:%s"
	proofKeyFormat    = "veilrank:proof:%s"
)

func LeaderboardGenKey() string { return leaderboardGenKey }

func LeaderboardTopKey(gen int64, limit int, chain string) string {
	if chain == "" {
		chain = "all"
	}
	return fmt.Sprintf(topKeyFormat, gen, limit, chain)
}

func ProofKey(hash string) string {
	return fmt.Sprintf(proofKeyFormat, hash)
}
