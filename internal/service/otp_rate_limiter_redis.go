package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ventana fija: el primer INCR de la ventana fija el TTL de la clave.
const redisRateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

type redisOTPRateLimiter struct {
	client redis.Scripter
	script *redis.Script
	window time.Duration
	max    int
	prefix string
}

// NewRedisOTPRateLimiter comparte el conteo entre instancias. Ante errores de
// Redis deja pasar la solicitud.
func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		script: redis.NewScript(redisRateLimitScript),
		window: window,
		max:    max,
		prefix: "auth:rl:",
	}
}

func (l *redisOTPRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	key = normalizeLimiterKey(key)
	if key == "" {
		return false, l.window
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		return true, 0
	}
	if int(res[0]) <= l.max {
		return true, 0
	}
	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = l.window
	}
	return false, retryAfter
}
