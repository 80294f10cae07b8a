package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archillexx/reviewnest/internal/domain"
	apperrors "github.com/archillexx/reviewnest/pkg/errors"
)

func setupTestCache(t *testing.T) (*FeedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFeedCache(client), mr
}

func sampleFeed() []domain.ReviewWithAuthor {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return []domain.ReviewWithAuthor{
		{
			Review: domain.Review{
				ID:            "rev-001",
				UserID:        "user-001",
				ProductName:   "Espresso Machine",
				ReviewContent: "Pulls a great shot.",
				Rating:        4.5,
				CreatedAt:     now,
				UpdatedAt:     now,
			},
			AuthorName: "Alice",
		},
		{
			Review: domain.Review{
				ID:            "rev-002",
				UserID:        "user-gone",
				ProductName:   "Grinder",
				ReviewContent: "Consistent grind.",
				Rating:        4,
				CreatedAt:     now.Add(-time.Hour),
				UpdatedAt:     now.Add(-time.Hour),
			},
			AuthorName: "Anonymous",
		},
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestFeedCache_Get_Success(t *testing.T) {
	cache, mr := setupTestCache(t)

	feed := sampleFeed()
	data, err := json.Marshal(feed)
	require.NoError(t, err)

	// Set data directly in miniredis.
	require.NoError(t, mr.Set(feedKey, string(data)))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rev-001", got[0].ID)
	assert.Equal(t, "Alice", got[0].AuthorName)
	assert.Equal(t, 4.5, got[0].Rating)
	assert.Equal(t, "Anonymous", got[1].AuthorName)
}

func TestFeedCache_Get_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, err := cache.Get(context.Background())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFeedCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, mr.Set(feedKey, "{{not-valid-json"))

	got, err := cache.Get(context.Background())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal feed")
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

func TestFeedCache_Set_Success(t *testing.T) {
	cache, mr := setupTestCache(t)

	feed := sampleFeed()
	err := cache.Set(context.Background(), feed, 30*time.Second)
	require.NoError(t, err)

	assert.True(t, mr.Exists(feedKey))

	raw, err := mr.Get(feedKey)
	require.NoError(t, err)

	var stored []domain.ReviewWithAuthor
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "rev-001", stored[0].ID)
}

func TestFeedCache_Set_TTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	err := cache.Set(context.Background(), sampleFeed(), 30*time.Second)
	require.NoError(t, err)

	ttl := mr.TTL(feedKey)
	assert.True(t, ttl > 25*time.Second, "expected TTL > 25s, got %v", ttl)
	assert.True(t, ttl <= 30*time.Second, "expected TTL <= 30s, got %v", ttl)
}

func TestFeedCache_Set_EmptyFeed(t *testing.T) {
	cache, mr := setupTestCache(t)

	// An empty feed is a valid cacheable value, distinct from a miss.
	err := cache.Set(context.Background(), []domain.ReviewWithAuthor{}, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists(feedKey))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ---------------------------------------------------------------------------
// Invalidate
// ---------------------------------------------------------------------------

func TestFeedCache_Invalidate_Success(t *testing.T) {
	cache, mr := setupTestCache(t)

	err := cache.Set(context.Background(), sampleFeed(), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists(feedKey))

	err = cache.Invalidate(context.Background())
	require.NoError(t, err)
	assert.False(t, mr.Exists(feedKey))
}

func TestFeedCache_Invalidate_NoEntry(t *testing.T) {
	cache, _ := setupTestCache(t)

	// Invalidating an absent entry is not an error.
	err := cache.Invalidate(context.Background())
	assert.NoError(t, err)
}
