package server

import (
	"net/http"
	"sync"
	"time"

	"wordrush/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP and action.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

// newRateLimiter returns nil when perSecond is not positive, which disables
// limiting.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow()
}

// Sweep forgets visitors that have been quiet for a while.
func (l *rateLimiter) Sweep() int {
	if l == nil {
		return 0
	}
	cutoff := time.Now().Add(-limiterIdleAfter)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (s *Server) rateLimit(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter.Allow(action + "|" + c.ClientIP()) {
			c.Next()
			return
		}
		log.Warn().Str("ip", c.ClientIP()).Str("action", action).Msg("rate limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
			Error:   string(game.CodeBadRequest),
			Message: "too many requests",
		})
	}
}
