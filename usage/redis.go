package usage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder grava em hashes:
//
//	<prefix>:total                 outcome -> n (cumulativo, sem expiração)
//	<prefix>:minute:<YYYYMMDDhhmm> outcome -> n (expira após ttl)
//	<prefix>:route                 "<route>:<outcome>" -> n
type RedisRecorder struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisRecorder)

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) { r.prefix = strings.Trim(prefix, ":") }
}

// WithBucketTTL define por quanto tempo os buckets por minuto ficam no Redis.
// Zero desliga a expiração.
func WithBucketTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "poorbox:usage",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) Record(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", field, 1)

	bucketKey := fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, bucketKey, r.ttl)
	}

	if route := strings.TrimSpace(ev.Route); route != "" {
		pipe.HIncrBy(ctx, r.prefix+":route", route+":"+field, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (r *RedisRecorder) Totals(ctx context.Context) (map[Outcome]int64, error) {
	raw, err := r.rdb.HGetAll(ctx, r.prefix+":total").Result()
	if err != nil {
		return nil, fmt.Errorf("read usage totals: %w", err)
	}
	out := make(map[Outcome]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[Outcome(k)] = n
	}
	return out, nil
}

// Minute devolve os contadores do bucket que contém at.
func (r *RedisRecorder) Minute(ctx context.Context, at time.Time) (map[Outcome]int64, error) {
	key := fmt.Sprintf("%s:minute:%s", r.prefix, at.UTC().Format("200601021504"))
	raw, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read usage bucket: %w", err)
	}
	out := make(map[Outcome]int64, len(raw))
	for k, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[Outcome(k)] = n
		}
	}
	return out, nil
}
