package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its token bucket before the
// sweeper forgets it.
const visitorTTL = 10 * time.Minute

// visitorPool hands out one token bucket per client IP.
type visitorPool struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// Feed reads dominate the traffic, so the general pool is generous.
	apiPool = newVisitorPool(rate.Limit(20), 40)

	// Login attempts are throttled hard to slow down credential guessing.
	loginPool = newVisitorPool(rate.Every(2*time.Second), 5)
)

func init() {
	go func() {
		for range time.Tick(visitorTTL) {
			apiPool.sweep()
			loginPool.sweep()
		}
	}()
}

func newVisitorPool(r rate.Limit, burst int) *visitorPool {
	return &visitorPool{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
	}
}

func (p *visitorPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// sweep drops buckets for clients not seen within visitorTTL.
func (p *visitorPool) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-visitorTTL)
	for ip, v := range p.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(p.visitors, ip)
		}
	}
}

func (p *visitorPool) middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": message,
			})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware applies the per-IP limit for general API traffic.
func RateLimitMiddleware() gin.HandlerFunc {
	return apiPool.middleware("Too many requests. Please slow down.")
}

// LoginRateLimitMiddleware applies the stricter per-IP limit for login.
func LoginRateLimitMiddleware() gin.HandlerFunc {
	return loginPool.middleware("Too many login attempts. Please wait and try again.")
}
