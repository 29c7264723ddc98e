package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// RefreshTokenStore keeps refresh tokens in redis, keyed by the SHA-256 hash
// of the raw token so a leaked dump cannot be replayed. The value is the
// owning user id; expiry rides on the redis TTL.
type RefreshTokenStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRefreshTokenStore(client *redisv9.Client, ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RefreshTokenStore{client: client, ttl: ttl}
}

func (s *RefreshTokenStore) Store(ctx context.Context, raw string, userID uint) error {
	key := s.key(raw)
	if err := s.client.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis store refresh token failed: %w", err)
	}
	return nil
}

// Validate resolves the token to its user id; a miss returns (0, false, nil).
func (s *RefreshTokenStore) Validate(ctx context.Context, raw string) (uint, bool, error) {
	val, err := s.client.Get(ctx, s.key(raw)).Result()
	if err == redisv9.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get refresh token failed: %w", err)
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse refresh token owner failed: %w", err)
	}
	return uint(userID), true, nil
}

func (s *RefreshTokenStore) Revoke(ctx context.Context, raw string) error {
	if err := s.client.Del(ctx, s.key(raw)).Err(); err != nil {
		return fmt.Errorf("redis revoke refresh token failed: %w", err)
	}
	return nil
}

func (s *RefreshTokenStore) key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "auth:refresh:" + hex.EncodeToString(sum[:])
}
