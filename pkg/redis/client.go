package redis

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/fundscreen/pkg/config"
)

// ErrDisabled is returned by Ping when REDIS_ENABLED=false
var ErrDisabled = errors.New("redis disabled")

// Client wraps the Redis client used by the cache and the shared rate limiter
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects to Redis and verifies the connection with a PING.
// REDIS_ENABLED=false 이면 no-op 클라이언트를 반환한다.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	addr := net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port)
	c := &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		addr: addr,
	}

	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}

	return c, nil
}

// Disabled returns a client whose cache and limiter helpers are no-ops
func Disabled() *Client {
	return &Client{}
}

// Enabled reports whether a live connection backs this client
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Addr returns host:port, empty when disabled
func (c *Client) Addr() string {
	if !c.Enabled() {
		return ""
	}
	return c.addr
}

// Ping checks the connection (health endpoint, startup)
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Redis returns the underlying redis client (nil when disabled)
func (c *Client) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}
