package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute

	// LoginFailedKey is set by the login handler when credentials are rejected.
	LoginFailedKey = "login_failed"
	// LoginSucceededKey is set by the login handler once the session is
	// stored. Only then are the counters cleared.
	LoginSucceededKey = "login_succeeded"
)

// AttemptStore counts failed attempts and cooldowns per key.
type AttemptStore interface {
	Cooldown(ctx context.Context, key string) (time.Duration, bool)
	StartCooldown(ctx context.Context, key string, d time.Duration)
	Attempts(ctx context.Context, key string) int
	Fail(ctx context.Context, key string, window time.Duration)
	Reset(ctx context.Context, key string)
}

// RedisAttempts keeps the counters in Redis under login_attempts:<key> and
// login_cooldown:<key>.
type RedisAttempts struct {
	client *redis.Client
}

func NewRedisAttempts(client *redis.Client) *RedisAttempts {
	return &RedisAttempts{client: client}
}

func (r *RedisAttempts) Cooldown(ctx context.Context, key string) (time.Duration, bool) {
	ttl, err := r.client.TTL(ctx, "login_cooldown:"+key).Result()
	if err != nil || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func (r *RedisAttempts) StartCooldown(ctx context.Context, key string, d time.Duration) {
	r.client.Set(ctx, "login_cooldown:"+key, "1", d)
	r.client.Del(ctx, "login_attempts:"+key)
}

func (r *RedisAttempts) Attempts(ctx context.Context, key string) int {
	n, _ := r.client.Get(ctx, "login_attempts:"+key).Int()
	return n
}

func (r *RedisAttempts) Fail(ctx context.Context, key string, window time.Duration) {
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, "login_attempts:"+key)
	pipe.Expire(ctx, "login_attempts:"+key, window)
	pipe.Exec(ctx)
}

func (r *RedisAttempts) Reset(ctx context.Context, key string) {
	r.client.Del(ctx, "login_attempts:"+key, "login_cooldown:"+key)
}

// LoginRateLimit blocks an email after LoginMaxAttempts failures for
// LoginCooldown. blocked renders the refusal. A nil store disables the limit.
func LoginRateLimit(store AttemptStore, blocked func(c *gin.Context, retryAfter time.Duration)) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
		if store == nil || email == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if ttl, ok := store.Cooldown(ctx, email); ok {
			blocked(c, ttl)
			c.Abort()
			return
		}

		if store.Attempts(ctx, email) >= LoginMaxAttempts {
			store.StartCooldown(ctx, email, LoginCooldown)
			blocked(c, LoginCooldown)
			c.Abort()
			return
		}

		c.Next()

		switch {
		case c.GetBool(LoginFailedKey):
			store.Fail(ctx, email, LoginCooldown)
		case c.GetBool(LoginSucceededKey):
			store.Reset(ctx, email)
		}
	}
}
