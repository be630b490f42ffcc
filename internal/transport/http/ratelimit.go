package http

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles the public gate endpoint per client IP using a
// fixed one-minute Redis window. A nil client disables it entirely, so a
// Redis outage never takes ticket validation down with it.
type RateLimiter struct {
	redis *redis.Client
	limit int
}

func NewRateLimiter(client *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{redis: client, limit: limit}
}

func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("gate-scan:%s", clientIP(r))

		// INCR and EXPIRE NX travel in one pipeline so the key can never be
		// created without a TTL.
		pipe := l.redis.Pipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.ExpireNX(r.Context(), key, time.Minute)
		if _, err := pipe.Exec(r.Context()); err != nil {
			// Fail open on Redis errors.
			next.ServeHTTP(w, r)
			return
		}
		if incr.Val() > int64(l.limit) {
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
