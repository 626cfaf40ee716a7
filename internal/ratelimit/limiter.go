// Package ratelimit provides Redis-backed rate limiting using the INCR +
// EXPIRE window algorithm, throttling chat posts, playback pushes, and login
// attempts per identity.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate limiting policy: the Redis key prefix, maximum number
// of requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // Redis key prefix (e.g., "rl:chat:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

var (
	// RuleChat allows 5 chat messages per 10 seconds per username.
	RuleChat = Rule{Key: "rl:chat:", Limit: 5, Window: 10 * time.Second}

	// RulePlayer allows 30 playback-state pushes per 10 seconds per
	// username. Generous: each play/pause/seek emits at most one push and
	// polling itself is not limited.
	RulePlayer = Rule{Key: "rl:player:", Limit: 30, Window: 10 * time.Second}

	// RuleLogin allows 10 login attempts per minute per remote address.
	RuleLogin = Rule{Key: "rl:login:", Limit: 10, Window: 1 * time.Minute}
)

// Limiter performs rate limiting checks against Redis.
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow checks whether the given identifier is within the rate limit defined
// by rule. It increments the counter in Redis and sets the expiry on first
// access.
//
// Returns true if the request is allowed, false if rate limited. On Redis
// errors the method fails open (returns true) so that a Redis outage does not
// block legitimate traffic.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR error key=%s: %v (failing open)", key, err)
		return true, err
	}

	// On the first increment, set the expiry to define the window boundary.
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE error key=%s: %v (failing open)", key, err)
			// The key exists but has no TTL. Best effort: delete it so it
			// doesn't throttle the identifier forever.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}
