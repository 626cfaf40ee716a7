// Package session manages bearer-token sessions backed by Redis. A session
// maps an opaque, unguessable token to a username with a fixed TTL; the rest
// of the system only consumes "resolve token -> username".
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for all session hashes.
	KeyPrefix = "session:"

	// TTL is how long a login remains valid.
	TTL = 12 * time.Hour

	// tokenBytes is the entropy of a session token (rendered as hex).
	tokenBytes = 24
)

// ErrNotFound is returned when a token does not resolve to a live session.
var ErrNotFound = errors.New("session: not found")

// Store manages sessions in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a session store and verifies the Redis connection.
func NewStore(redisAddr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: redisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing Redis client, for callers that share
// one connection across stores.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Create mints a new token for the username and stores it with the standard
// TTL. The token is returned for delivery to the client.
func (s *Store) Create(ctx context.Context, username string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: token generation: %w", err)
	}
	token := hex.EncodeToString(buf)

	key := KeyPrefix + token
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"username":   username,
		"created_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, key, TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return token, nil
}

// Resolve returns the username behind a token, or ErrNotFound if the token
// is unknown or expired.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	username, err := s.client.HGet(ctx, KeyPrefix+token, "username").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: resolve: %w", err)
	}
	if username == "" {
		return "", ErrNotFound
	}
	return username, nil
}

// Delete revokes a token immediately.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, KeyPrefix+token).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for use by other packages.
func (s *Store) Client() *redis.Client {
	return s.client
}
