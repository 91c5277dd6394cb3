// Package lock wraps the Redis coordination store behind the atomic
// primitives the reservation core needs: set-if-absent-with-TTL acquire,
// owner-checked compare-and-delete release, unconditional bulk release,
// and an order-preserving batched read. Every primitive that must be
// atomic across a check-then-act pair is a single Lua script, the same
// idiom the rate limiter in this codebase's lineage uses for its
// token-bucket refill.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript performs SET key owner PX ttl NX and reports whether the
// caller now owns the key. It is one round trip so a concurrent acquire
// for the same key can never observe a half-written state.
var acquireScript = redis.NewScript(`
	local ok = redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2])
	if ok then
		return 1
	end
	return 0
`)

// releaseScript deletes key only if its current value equals owner, so a
// lock that expired and was re-acquired by someone else is never deleted
// out from under its new owner.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Service is a thin wrapper over a Redis client providing the Lock
// Service contract. A nil Client is never valid; callers construct
// Service only once a connection has been verified.
type Service struct {
	rdb *redis.Client
}

// New returns a Service backed by rdb.
func New(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

// Acquire attempts to set key to owner with the given TTL if the key is
// absent. It reports true iff the caller now holds the key.
func (s *Service) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res, err := acquireScript.Run(ctx, s.rdb, []string{key}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Release deletes key only if it is currently held by owner.
func (s *Service) Release(ctx context.Context, key, owner string) error {
	_, err := releaseScript.Run(ctx, s.rdb, []string{key}, owner).Result()
	return err
}

// ReleaseAll unconditionally deletes every key in keys. Used for
// best-effort reclaim — e.g. the reaper deleting a reaped seat's lock —
// where the caller has already established via the DB that no other
// owner's claim should survive.
func (s *Service) ReleaseAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// GetMany reads keys in one round trip, preserving index order. A missing
// key yields an empty string at that index; callers distinguish absence
// by checking for "".
func (s *Service) GetMany(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if sv, ok := v.(string); ok {
			out[i] = sv
		}
	}
	return out, nil
}

// SeatKey builds the coordination-store key for a seat lock.
func SeatKey(seatID string) string {
	return "lock:seat:" + seatID
}

// ReaperKey is the coordination-store key contested by every replica's
// Expiration Reaper.
const ReaperKey = "lock:cron:reservations-cleanup"
