package queue

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"
)

// RetryTracker counts how many times a booking-created message has
// failed processing so the consumer can stop requeueing it and park it
// on the dead-letter queue instead.
type RetryTracker interface {
    // Bump increments and returns the failure count for a booking.
    Bump(ctx context.Context, bookingID string) (int, error)
    // Clear forgets the failure count after a successful handle.
    Clear(ctx context.Context, bookingID string) error
}

// RedisRetryTracker keeps failure counts in Redis so the ceiling holds
// across consumer restarts and multiple consumer processes.
type RedisRetryTracker struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewRedisRetryTracker returns a tracker backed by the given client.
// Counters expire after ttl so an abandoned key cannot pin a booking
// forever.
func NewRedisRetryTracker(rdb *redis.Client, ttl time.Duration) *RedisRetryTracker {
    return &RedisRetryTracker{rdb: rdb, ttl: ttl}
}

func retryKey(bookingID string) string { return "booking:retry:" + bookingID }

func (t *RedisRetryTracker) Bump(ctx context.Context, bookingID string) (int, error) {
    n, err := t.rdb.Incr(ctx, retryKey(bookingID)).Result()
    if err != nil {
        return 0, err
    }
    t.rdb.Expire(ctx, retryKey(bookingID), t.ttl)
    return int(n), nil
}

func (t *RedisRetryTracker) Clear(ctx context.Context, bookingID string) error {
    return t.rdb.Del(ctx, retryKey(bookingID)).Err()
}

// NoopRetryTracker is used when Redis is unavailable at startup. Every
// Bump reports one failure, so messages are always requeued and the
// dead-letter ceiling is effectively disabled rather than dropping
// deliveries.
type NoopRetryTracker struct{}

func (NoopRetryTracker) Bump(ctx context.Context, bookingID string) (int, error) { return 1, nil }
func (NoopRetryTracker) Clear(ctx context.Context, bookingID string) error       { return nil }
