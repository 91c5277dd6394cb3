// Package idempotency implements the two-phase idempotent-response cache
// described by the reservation core: a "processing" sentinel guards
// against two replicas executing the same logical request concurrently,
// and is later replaced by the final JSON response. Both phases are
// driven by Redis, via the same atomic-script idiom internal/lock uses.
package idempotency

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const processingSentinel = `{"status":"processing"}`

// maxKeyLen bounds a client-supplied idempotency key, per the contract in
// the spec ("trimmed, truncated to 128 chars, empty -> absent").
const maxKeyLen = 128

// ClaimResult reports the outcome of Claim.
type ClaimResult struct {
	Hit         bool   // a final cached response already exists
	Pending     bool   // another writer is still processing this key
	FirstWriter bool   // the caller must do the work and call Store/Abandon
	Response    string // populated iff Hit
}

// claimScript is a single round trip: if the key is absent, claim it with
// the processing sentinel and report FirstWriter; if present, return its
// current value so the caller can distinguish Pending from Hit without a
// second call.
var claimScript = redis.NewScript(`
	local existing = redis.call('GET', KEYS[1])
	if existing == false then
		redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
		return {1, ''}
	end
	return {0, existing}
`)

// Store wraps a Redis client providing the Idempotency Store contract.
type Store struct {
	rdb *redis.Client
}

// New returns a Store backed by rdb.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Key derives the cache key for a user and client-supplied idempotency
// key, applying the trim/truncate/empty-means-absent rule. It returns
// ("", false) when no key applies, in which case the caller must skip
// the idempotency gate entirely.
func Key(userID, rawKey string) (string, bool) {
	k := strings.TrimSpace(rawKey)
	if k == "" {
		return "", false
	}
	if len(k) > maxKeyLen {
		k = k[:maxKeyLen]
	}
	return "idem:reservation:" + userID + ":" + k, true
}

// Claim atomically checks and, if absent, marks cacheKey as processing.
func (s *Store) Claim(ctx context.Context, cacheKey string, ttl time.Duration) (ClaimResult, error) {
	res, err := claimScript.Run(ctx, s.rdb, []string{cacheKey}, processingSentinel, ttl.Milliseconds()).Result()
	if err != nil {
		return ClaimResult{}, err
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) != 2 {
		return ClaimResult{}, err
	}
	won := asInt64(arr[0]) == 1
	if won {
		return ClaimResult{FirstWriter: true}, nil
	}
	existing, _ := arr[1].(string)
	if existing == processingSentinel {
		return ClaimResult{Pending: true}, nil
	}
	return ClaimResult{Hit: true, Response: existing}, nil
}

// Get reads the current value at cacheKey, used while polling a Pending
// claim. The returned bool is false while the marker still reads
// "processing" or is altogether absent (already expired).
func (s *Store) Get(ctx context.Context, cacheKey string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if v == processingSentinel {
		return "", false, nil
	}
	return v, true, nil
}

// Store replaces the processing marker at cacheKey with the final
// response, keeping the TTL reset to ttl.
func (s *Store) Store(ctx context.Context, cacheKey, response string, ttl time.Duration) error {
	return s.rdb.Set(ctx, cacheKey, response, ttl).Err()
}

// Abandon deletes the processing marker so the next retry may attempt
// the work afresh. Called by the first writer when the underlying work
// fails.
func (s *Store) Abandon(ctx context.Context, cacheKey string) error {
	return s.rdb.Del(ctx, cacheKey).Err()
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	}
	return 0
}
