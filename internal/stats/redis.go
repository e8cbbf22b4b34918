package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	internalsettings "github.com/folio-studio/contactgate/internal/settings"
	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps cumulative and per-minute outcome counters in Redis hashes.
type RedisRecorder struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRecorder constructs a RedisRecorder.
func NewRedisRecorder(client *redis.Client, prefix string, ttl time.Duration) *RedisRecorder {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = internalsettings.DefaultStatsRedisPrefix
	}
	if ttl <= 0 {
		ttl = internalsettings.DefaultStatsRedisTTL
	}
	return &RedisRecorder{client: client, prefix: prefix, ttl: ttl}
}

// Record increments the total and minute-bucket counters for ev.Outcome.
func (r *RedisRecorder) Record(ctx context.Context, ev Event) error {
	if r == nil || r.client == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	bucketKey := r.MinuteKey(at)
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, r.TotalKey(), ev.Outcome, 1)
	pipe.HIncrBy(ctx, bucketKey, ev.Outcome, 1)
	pipe.Expire(ctx, bucketKey, r.ttl)
	if _, errExec := pipe.Exec(ctx); errExec != nil {
		return fmt.Errorf("stats redis: record: %w", errExec)
	}
	return nil
}

// TotalKey is the hash holding cumulative counters.
func (r *RedisRecorder) TotalKey() string { return r.prefix + ":total" }

// MinuteKey is the hash holding counters for the minute containing at.
func (r *RedisRecorder) MinuteKey(at time.Time) string {
	return r.prefix + ":minute:" + at.UTC().Format("200601021504")
}
