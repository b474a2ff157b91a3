package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "apirick:session:"

// ErrNoSession is returned when a token does not map to a live session.
var ErrNoSession = errors.New("session not found")

// Store maps opaque session tokens to user IDs in Redis.
//
// A session lives from Establish to Clear or TTL expiry. Resolve
// refreshes the TTL, so the window is measured from last activity.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store. ttl <= 0 falls back to 24h.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Establish creates a session for userID and returns its opaque token.
func (s *Store) Establish(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	key := keyPrefix + token
	if err := s.rdb.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session set: %w", err)
	}
	return token, nil
}

// Resolve returns the user ID the token maps to, refreshing the TTL.
// Unknown or expired tokens yield ErrNoSession.
func (s *Store) Resolve(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrNoSession
	}
	key := keyPrefix + token
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("session get: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}
	_ = s.rdb.Expire(ctx, key, s.ttl).Err()
	return uint(id), nil
}

// Clear deletes the session. Clearing an unknown token is a no-op.
func (s *Store) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("session del: %w", err)
	}
	return nil
}
