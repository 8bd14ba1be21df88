package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openshelf/internal/config"
	"openshelf/internal/logger"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(context.Background(), client, logger.Discard()), mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "books:list:all", ListKey())
	assert.Equal(t, "books:detail:42", DetailKey("42"))
	assert.Equal(t, "books:pdf:42", PDFKey("42"))
	assert.Equal(t, "books:cover:42", CoverKey("42"))
	assert.Equal(t, []string{"books:detail:42", "books:pdf:42", "books:cover:42"}, DocumentKeys("42"))
}

func TestRedisSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.True(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	c.Delete(ctx, "k", "missing")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	c.Set(ctx, "k", []byte("v"), time.Second)
	mr.FastForward(2 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisUnavailableDegrades(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	mr.Close()

	before := testutil.ToFloat64(requestsTotal.WithLabelValues("error"))

	assert.False(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.Delete(ctx, "k") })

	assert.Equal(t, before+1, testutil.ToFloat64(requestsTotal.WithLabelValues("error")))
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(config.RedisConfig{URL: "redis://:pw@cache.internal:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", client.Options().Addr)
	assert.Equal(t, "pw", client.Options().Password)
	assert.Equal(t, 2, client.Options().DB)

	client, err = NewRedisClient(config.RedisConfig{Host: "localhost", Port: "6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", client.Options().Addr)
	assert.Equal(t, 1, client.Options().DB)

	_, err = NewRedisClient(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	type rec struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}
	require.True(t, SetJSON(ctx, c, DetailKey("1"), rec{ID: "1", Title: "Go"}, DefaultTTL))

	var out rec
	require.True(t, GetJSON(ctx, c, DetailKey("1"), &out))
	assert.Equal(t, rec{ID: "1", Title: "Go"}, out)

	c.Set(ctx, DetailKey("2"), []byte("{broken"), DefaultTTL)
	assert.False(t, GetJSON(ctx, c, DetailKey("2"), &out))
}

func TestBytesHelpersRoundTripBinary(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x10}

	require.True(t, SetBytes(ctx, c, PDFKey("1"), payload, DefaultTTL))
	stored, err := mr.Get(PDFKey("1"))
	require.NoError(t, err)
	assert.Equal(t, "JVBERgD/EA==", stored)

	got, ok := GetBytes(ctx, c, PDFKey("1"))
	require.True(t, ok)
	assert.Equal(t, payload, got)

	c.Set(ctx, PDFKey("2"), []byte("!!not base64"), DefaultTTL)
	_, ok = GetBytes(ctx, c, PDFKey("2"))
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "a", []byte("1"), time.Minute)
	got, ok := m.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	now = now.Add(2 * time.Minute)
	_, ok = m.Get(ctx, "a")
	assert.False(t, ok)

	m.Set(ctx, "b", []byte("2"), 0)
	m.Set(ctx, "c", []byte("3"), 0)
	m.Set(ctx, "d", []byte("4"), 0)
	_, ok = m.Get(ctx, "b")
	assert.False(t, ok, "oldest entry evicted at capacity")

	m.Delete(ctx, "c", "missing")
	_, ok = m.Get(ctx, "c")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "d")
	assert.True(t, ok)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	assert.False(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Delete(ctx, "k")
}
