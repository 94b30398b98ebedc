package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func setupTestStore(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skipping test: redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Minute)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := domain.Principal{UserID: 7, Username: "ada", CustomerID: "c-1", Role: domain.RoleAdmin}

	token, err := s.Create(ctx, p)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	got, err := s.Get(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)
	assert.True(t, got.IsAdmin())

	require.NoError(t, s.Delete(ctx, token))
	got, err = s.Get(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewTokenIsRandom(t *testing.T) {
	a, err := newToken()
	require.NoError(t, err)
	b, err := newToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
