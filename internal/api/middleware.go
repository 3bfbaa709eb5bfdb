package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gamedeck/socialgraph/pkg/config"
)

// AccountHeader carries the acting account resolved by the upstream
// authenticator
const AccountHeader = "X-Account-Id"

const accountKey = "socialgraph.account"

// Identity stores the acting account, if any, on the gin context
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(AccountHeader)); uid != "" {
			c.Set(accountKey, uid)
		}
		c.Next()
	}
}

// ActingAccount returns the account the request acts as, or "" when anonymous
func ActingAccount(c *gin.Context) string {
	return c.GetString(accountKey)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per acting account, falling back to the
// client IP for anonymous callers
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a limiter. A non-positive rate disables limiting.
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(cfg.PerSecond),
		burst:    burst,
		idle:     3 * time.Minute,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *RateLimiter) enabled() bool {
	return l != nil && l.limit > 0
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Allow reports whether key may make a request now
func (l *RateLimiter) Allow(key string) bool {
	if !l.enabled() {
		return true
	}
	return l.get(key).AllowN(l.now(), 1)
}

// Middleware rejects requests over the limit with HTTP 429
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := ActingAccount(c); uid != "" {
			key = "account:" + uid
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &JSONRPCError{Code: ErrRateLimited, Message: "Too many requests"},
			})
			return
		}
		c.Next()
	}
}

// sweep forgets visitors idle for longer than the idle window
func (l *RateLimiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Cleanup periodically forgets idle visitors until ctx is done
func (l *RateLimiter) Cleanup(ctx context.Context) {
	if !l.enabled() {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}
