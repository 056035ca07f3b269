package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(raw), mr
}

func TestIncrWithTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.RateLimitKey("ip:login:1.2.3.4")

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL(key))

	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mr.FastForward(2 * time.Minute)
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.AccessSessionKey("jti-1")
	require.NoError(t, client.Set(ctx, key, "refresh", time.Hour))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestGetDel(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	key := client.AccessSessionKey("jti-2")
	require.NoError(t, client.Set(ctx, key, "digest", time.Hour))

	got, err := client.GetDel(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "digest", got)
	assert.False(t, mr.Exists(key))

	_, err = client.GetDel(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestIncrWithoutTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	key := client.RateLimitKey("unbounded")
	_, err := client.IncrWithTTL(ctx, key, 0)
	require.NoError(t, err)
	assert.Zero(t, mr.TTL(key))
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.IdempotencyKey("invoices:create", "abc")
	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "idk:session:access:abc", c.AccessSessionKey("abc"))
	assert.Equal(t, "idk:idempotency:invoices:key", c.IdempotencyKey("invoices", " key "))
	assert.Equal(t, "idk:rate_limit:login", c.RateLimitKey("login"))
}

func TestZeroClient(t *testing.T) {
	var c *Client
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotInitialized)
	_, err := c.GetDel(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.IncrWithTTL(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, c.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, time.Second, opts.DialTimeout)
}
