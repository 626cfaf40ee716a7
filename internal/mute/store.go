// Package mute provides Redis-backed chat mutes with escalating durations.
// Mute records are simple key-value pairs with TTL-based expiry:
//
//	Key:   mute:<username>
//	Value: <reason>
//	TTL:   mute duration
package mute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MutePrefix is the Redis key prefix for mute records.
	MutePrefix = "mute:"

	// OffensesPrefix is the Redis key prefix for offense counters used by
	// the escalation logic.
	OffensesPrefix = "offenses:"

	// Escalating mute durations.
	Mute5Min  = 5 * time.Minute  // 1st offense
	Mute30Min = 30 * time.Minute // 2nd offense
	Mute12h   = 12 * time.Hour   // 3rd+ offense

	// OffensesTTL is how long the offense counter lives. After 24h without
	// new offenses the counter resets to zero.
	OffensesTTL = 24 * time.Hour
)

// Store manages mute records in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a mute store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// IsMuted checks whether a username is currently muted. Returns
// (muted, remaining, reason, error). Redis errors are returned so callers can
// decide how to handle them; the recommended policy is fail-open.
func (s *Store) IsMuted(ctx context.Context, username string) (bool, time.Duration, string, error) {
	key := MutePrefix + username

	reason, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, 0, "", nil
	}
	if err != nil {
		return false, 0, "", err
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		// The mute exists but the TTL read failed; report muted with zero
		// remaining rather than swallowing the mute.
		return true, 0, reason, nil
	}
	if ttl < 0 {
		ttl = 0
	}
	return true, ttl, reason, nil
}

// Mute silences a username for the given duration. The mute expires on its
// own.
func (s *Store) Mute(ctx context.Context, username string, duration time.Duration, reason string) error {
	return s.client.Set(ctx, MutePrefix+username, reason, duration).Err()
}

// Unmute lifts a mute immediately.
func (s *Store) Unmute(ctx context.Context, username string) error {
	return s.client.Del(ctx, MutePrefix+username).Err()
}

// escalationDuration returns the mute duration for a given offense count.
func escalationDuration(offenseCount int) time.Duration {
	switch {
	case offenseCount <= 1:
		return Mute5Min
	case offenseCount == 2:
		return Mute30Min
	default:
		return Mute12h
	}
}

// Escalate increments the offense counter for a username and applies a mute
// whose duration escalates with the number of offenses:
//
//	1st offense  -> 5 minutes
//	2nd offense  -> 30 minutes
//	3rd+ offense -> 12 hours
//
// The counter has a 24h TTL set on first increment, so it naturally expires
// when the user behaves. Returns the mute duration that was applied.
func (s *Store) Escalate(ctx context.Context, username string, reason string) (time.Duration, error) {
	key := OffensesPrefix + username

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("mute: escalate incr: %w", err)
	}

	// Set TTL only on first increment so the window doesn't slide.
	if count == 1 {
		if err := s.client.Expire(ctx, key, OffensesTTL).Err(); err != nil {
			return 0, fmt.Errorf("mute: escalate expire: %w", err)
		}
	}

	duration := escalationDuration(int(count))
	if err := s.Mute(ctx, username, duration, reason); err != nil {
		return 0, fmt.Errorf("mute: escalate set: %w", err)
	}
	return duration, nil
}
