// Package session stores authenticated principals in Redis behind random
// opaque tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
)

const keyPrefix = "session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create stores p under a new token and returns the token.
func (s *RedisStore) Create(ctx context.Context, p domain.Principal) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal principal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Get returns nil when the token is unknown or expired.
func (s *RedisStore) Get(ctx context.Context, token string) (*domain.Principal, error) {
	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var p domain.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, keyPrefix+token).Err()
}
