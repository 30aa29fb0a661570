package http

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"budget/internal/log"
)

// rateLimiter allows limit requests per client IP in a one minute window.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientInfo
	hits         int64
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes clients idle for more than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[clientIP]
	if !ok || now.Sub(client.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientInfo{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	if client.requests > rl.limit {
		atomic.AddInt64(&rl.hits, 1)
		return false
	}
	return true
}

// middleware limits requests that change budgets. Reads are never limited.
func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if !rl.allow(c.ClientIP(), time.Now()) {
			log.FromGin(c).WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.FieldClientIP, c.ClientIP(), log.FieldMethod, c.Request.Method)
			c.Header("Retry-After", "60")
			Error(c, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) hitCount() int64 {
	return atomic.LoadInt64(&rl.hits)
}
