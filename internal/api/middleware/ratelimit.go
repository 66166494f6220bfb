package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the time until the caller regains capacity.
	Reset time.Duration
}

// Limiter counts requests for a key against limit per window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// RedisLimiter is a fixed-window limiter shared by every server instance.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a RedisLimiter storing counters under "rl:".
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "rl:"}
}

// Allow increments the window counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		// NX keeps the window anchored at the first request.
		pipe.ExpireNX(ctx, k, window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := incr.Val()
	reset := ttl.Val()
	if reset < 0 {
		reset = window
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// MemoryLimiter is a per-process token bucket limiter. Idle buckets are
// evicted after idleTTL, and at most size keys are tracked.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
	now     func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(size int, idleTTL time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: expirable.NewLRU[string, *rate.Limiter](size, nil, idleTTL),
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket, which refills limit tokens per window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Limit: limit, Reset: window}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	}
	// Re-adding refreshes the idle expiry.
	l.buckets.Add(key, lim)

	now := l.now()
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	var reset time.Duration
	if tokens < 1 {
		reset = time.Duration((1 - tokens) / float64(lim.Limit()) * float64(time.Second))
	}
	return Decision{Allowed: allowed, Limit: limit, Remaining: remaining, Reset: reset}, nil
}

// RateLimit limits route to limit requests per window for each caller. Callers
// are identified by API key prefix, falling back to the client address.
// Limiter failures let the request through.
func RateLimit(l Limiter, route string, limit int, window time.Duration) func(http.Handler) http.Handler {
	message := fmt.Sprintf("Rate limit exceeded: %d per %d seconds", limit, int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := route + ":" + callerID(r)

			d, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request",
					"route", route,
					"error", err)
				next.ServeHTTP(w, r)
				return
			}

			resetSecs := int((d.Reset + time.Second - 1) / time.Second)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSecs))

			if !d.Allowed {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, message, nil,
					shared.WithRetryAfter(d.Reset))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerID(r *http.Request) string {
	if key, ok := shared.APIKeyFromContext(r.Context()); ok {
		return "key:" + key.Prefix
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
