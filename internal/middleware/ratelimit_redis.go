package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed window counter shared by every API instance.
// When Redis cannot answer the request is allowed.
type RedisLimiter struct {
	client  redis.Scripter
	script  *redis.Script
	timeout time.Duration
}

// NewRedisLimiter connects to the Redis server at url (redis://...)
func NewRedisLimiter(url string) (*RedisLimiter, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return newRedisLimiter(client), client, nil
}

func newRedisLimiter(client redis.Scripter) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		script:  redis.NewScript(rateLimitScript),
		timeout: 250 * time.Millisecond,
	}
}

func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		slog.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
		return true
	}
	return allowed == 1
}
