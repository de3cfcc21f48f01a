package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ErrCodeRateLimited is returned with 429 responses
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// RateLimiter hands out one token bucket per client key. A bucket refills
// limit tokens per window and holds at most limit tokens.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	every   rate.Limit
	idle    time.Duration
	now     func() time.Time
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		every:   rate.Limit(float64(limit) / window.Seconds()),
		idle:    window * 2,
		now:     time.Now,
	}
}

// Allow takes a token from key's bucket and reports the tokens left
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	allowed := c.bucket.AllowN(now, 1)
	return allowed, int(c.bucket.TokensAt(now))
}

// Sweep drops buckets that have been idle for two windows and returns how
// many were removed
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	removed := 0
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// RateLimitKey identifies the caller: the acting user when the actor header
// is present, the client IP otherwise
func RateLimitKey(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor-ID"); actor != "" {
		return "actor:" + actor
	}
	return "ip:" + c.ClientIP()
}

// RateLimit returns a rate limiting middleware keyed by RateLimitKey
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, RateLimitKey)
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				logger.GetRequestID(c.Request.Context()),
			))
			return
		}
		c.Next()
	}
}
