// Package ratelimit throttles generation requests per user with a fixed
// one-minute window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window is the length of a counting window.
const Window = time.Minute

type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// RetryAfter is the time left in the current window.
func (r Result) RetryAfter(now time.Time) time.Duration {
	return max(r.Reset.Sub(now), 0)
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

func windowOf(now time.Time) (start int64, reset time.Time) {
	w := int64(Window / time.Second)
	start = now.Unix() / w * w
	return start, time.Unix(start+w, 0).UTC()
}

func unlimited(key string, limit int) bool {
	return limit <= 0 || key == ""
}

// incrWindow sets the TTL on the first hit of a window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type RedisLimiter struct {
	client redis.Scripter
	prefix string
}

func NewRedisLimiter(client redis.Scripter, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if unlimited(key, limit) {
		return Result{Allowed: true}, nil
	}
	start, reset := windowOf(now)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, start)
	ttl := int(Window/time.Second) + 1

	count, err := incrWindow.Run(ctx, l.client, []string{redisKey}, ttl).Int64()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit increment for %s: %w", key, err)
	}
	if count > int64(limit) {
		return Result{Allowed: false, Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(count), Reset: reset}, nil
}

type memoryWindow struct {
	start int64
	count int
}

// MemoryLimiter is the single-process fallback used when no Redis is
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*memoryWindow)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if unlimited(key, limit) {
		return Result{Allowed: true}, nil
	}
	start, reset := windowOf(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || w.start != start {
		l.evict(start)
		w = &memoryWindow{start: start}
		l.windows[key] = w
	}
	if w.count >= limit {
		return Result{Allowed: false, Reset: reset}, nil
	}
	w.count++
	return Result{Allowed: true, Remaining: limit - w.count, Reset: reset}, nil
}

// evict drops windows older than start. Callers hold mu.
func (l *MemoryLimiter) evict(start int64) {
	for k, w := range l.windows {
		if w.start < start {
			delete(l.windows, k)
		}
	}
}
