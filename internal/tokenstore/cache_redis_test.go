package tokenstore

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.Close() })
	return mr, cache
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestRedis(t)

	_, ok, err := cache.Get(ctx, "oauth_dropbox_missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "oauth_dropbox_abc", "1704110400|xyz", TTL))
	assert.Equal(t, TTL, mr.TTL("oauth_dropbox_abc"))

	v, ok, err := cache.Get(ctx, "oauth_dropbox_abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1704110400|xyz", v)

	mr.FastForward(TTL + time.Second)
	_, ok, err = cache.Get(ctx, "oauth_dropbox_abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "oauth_dropbox_def", "1704110400|uvw", TTL))
	require.NoError(t, cache.Delete(ctx, "oauth_dropbox_def"))
	assert.False(t, mr.Exists("oauth_dropbox_def"))
}

func TestRedisCacheServerErrors(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestRedis(t)
	mr.SetError("LOADING redis is loading the dataset in memory")

	_, ok, err := cache.Get(ctx, "oauth_dropbox_abc")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, cache.Set(ctx, "oauth_dropbox_abc", "v", TTL))
}

func TestStoreWithRedisCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	mr, cache := newTestRedis(t)

	repo := new(MockRepository)
	repo.On("Insert", mock.Anything, mock.AnythingOfType("PendingRequestToken")).Return(nil)
	store := NewStore(repo, quietLogger(), WithCache(cache), WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "abc", "xyz", "dropbox"))
	stored, err := mr.Get("oauth_dropbox_abc")
	require.NoError(t, err)
	assert.Equal(t, "1704110400|xyz", stored)

	// hit: served from redis without touching the durable store
	clock.Advance(19 * time.Minute)
	secret, err := store.Get(ctx, "abc", "dropbox")
	require.NoError(t, err)
	assert.Equal(t, "xyz", secret)
	repo.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// redis still holds the key, but its creation time is past the TTL
	clock.Advance(2 * time.Minute)
	require.True(t, mr.Exists("oauth_dropbox_abc"))
	notBefore := clock.Now().Add(-TTL)
	repo.On("FindActive", mock.Anything, "dropbox", "abc", notBefore).
		Return(nil, apperrors.ErrTokenNotFound).Once()
	_, err = store.Get(ctx, "abc", "dropbox")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	// miss: unknown tokens fall through to the durable store
	repo.On("FindActive", mock.Anything, "dropbox", "nope", notBefore).
		Return(&PendingRequestToken{Secret: "from-db"}, nil).Once()
	secret, err = store.Get(ctx, "nope", "dropbox")
	require.NoError(t, err)
	assert.Equal(t, "from-db", secret)

	repo.AssertExpectations(t)
}
