package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitReply is the in-widget text for any rejected chat request.
const RateLimitReply = "You've reached the rate limit. Please try again in an hour or email us at contact@thelimbostudio.com"

type burstEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type burstLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	entries     map[string]*burstEntry
	entryTTL    time.Duration
	lastCleanup time.Time
}

func (b *burstLimiter) allow(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastCleanup) >= b.entryTTL {
		for k, e := range b.entries {
			if now.Sub(e.lastSeen) > b.entryTTL {
				delete(b.entries, k)
			}
		}
		b.lastCleanup = now
	}

	e, ok := b.entries[key]
	if !ok {
		e = &burstEntry{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// BurstLimit is an in-process token bucket per client IP that sits in front
// of the store-backed hourly caps. rpm or burst <= 0 disables it.
func BurstLimit(rpm, burst int) gin.HandlerFunc {
	if rpm <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	bl := &burstLimiter{
		limit:       rate.Every(time.Minute / time.Duration(rpm)),
		burst:       burst,
		entries:     make(map[string]*burstEntry),
		entryTTL:    10 * time.Minute,
		lastCleanup: time.Now(),
	}
	return func(c *gin.Context) {
		if !bl.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":             false,
				"error":          "RATE_LIMIT",
				"reply_markdown": RateLimitReply,
			})
			return
		}
		c.Next()
	}
}
