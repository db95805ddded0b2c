package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter on Redis INCR/EXPIRE. Without Redis, or
// when Redis errors, requests are let through.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	log    *slog.Logger
}

// ConnectRedis returns nil when addr is empty or the server does not answer.
func ConnectRedis(ctx context.Context, addr, password string, db int, logger *slog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", addr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}

func NewRateLimiter(client *redis.Client, max int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if max <= 0 {
		max = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{client: client, max: max, window: window, log: logger}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.client == nil {
			next.ServeHTTP(w, r)
			return
		}
		route := routePattern(r)
		ident := r.RemoteAddr
		if user, err := userFromContext(r.Context()); err == nil {
			ident = user.UserID
		}
		key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + route + ":" + ident

		val, err := l.client.Incr(r.Context(), key).Result()
		if err != nil {
			l.log.Warn("rate limiter redis error", "err", err)
			w.Header().Set("X-RateLimit-Error", "redis-error")
			next.ServeHTTP(w, r)
			return
		}
		if val == 1 {
			l.client.Expire(r.Context(), key, l.window)
		}
		if val > int64(l.max) {
			rateLimitBlocked.WithLabelValues(route).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		rateLimitRequests.WithLabelValues(route).Inc()
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.max)-val, 10))
		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
