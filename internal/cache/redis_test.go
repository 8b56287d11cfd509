package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return &RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}, mr
}

func TestQuotaRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, found, err := c.GetQuota(ctx, "alice@y.edu")
	require.NoError(t, err)
	assert.False(t, found)

	next := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	q := QuotaEntry{NumLeft: 2, NumUsed: 1, NumAllowed: 3, NextRefresh: next}
	require.NoError(t, c.SetQuota(ctx, "alice@y.edu", q))

	got, found, err := c.GetQuota(ctx, "alice@y.edu")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, q.NumLeft, got.NumLeft)
	assert.True(t, q.NextRefresh.Equal(got.NextRefresh))
	assert.Equal(t, QuotaTTL, mr.TTL("crush:quota:alice@y.edu"))

	require.NoError(t, c.InvalidateQuota(ctx, "alice@y.edu"))
	assert.False(t, mr.Exists("crush:quota:alice@y.edu"))
}

func TestSetQuotaCapsTTLAtRefresh(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.SetQuota(ctx, "a@y.edu", QuotaEntry{NextRefresh: time.Now().Add(time.Minute)}))
	ttl := mr.TTL("crush:quota:a@y.edu")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %s", ttl)

	require.NoError(t, c.SetQuota(ctx, "b@y.edu", QuotaEntry{NextRefresh: time.Now().Add(-time.Minute)}))
	assert.False(t, mr.Exists("crush:quota:b@y.edu"))
}

func TestGetQuotaDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("crush:quota:a@y.edu", "not json"))

	_, found, err := c.GetQuota(ctx, "a@y.edu")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("crush:quota:a@y.edu"))
}
