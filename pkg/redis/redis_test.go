package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.Empty(t, client.Addr())
	assert.ErrorIs(t, client.Ping(context.Background()), ErrDisabled)
	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    "1",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := New(ctx, cfg)
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestClient_NilIsDisabled(t *testing.T) {
	var client *Client
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	limit := YahooRateLimit(5)

	d, err := limiter.Allow(context.Background(), limit)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "requests must pass when Redis is disabled")
	assert.Equal(t, limit.Limit, d.Remaining)
	assert.Zero(t, d.RetryAfter)
	assert.Equal(t, "test:ratelimit:yahoo", limiter.key(limit))

	assert.NoError(t, limiter.Wait(context.Background(), limit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))

	n, err := cache.Purge(ctx, "fundamental:")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestYahooRateLimit(t *testing.T) {
	assert.Equal(t, 5, YahooRateLimit(5).Limit)
	assert.Equal(t, 1, YahooRateLimit(0).Limit)
	assert.Equal(t, time.Second, YahooRateLimit(3).Window)
	assert.Equal(t, "yahoo", YahooRateLimit(3).Key)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"FundamentalKey", FundamentalKey("US", "aapl"), "fundamental:us:AAPL"},
		{"FundamentalKey hk", FundamentalKey("hk", "0700.hk"), "fundamental:hk:0700.HK"},
		{"FundamentalPrefix", FundamentalPrefix("CN"), "fundamental:cn:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
