// Package http serves the budget JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"budget/internal/log"
	"budget/internal/services"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	svc          *services.BudgetService
	rateLimiter  *rateLimiter
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready to run server.
func NewServer(addr string, svc *services.BudgetService, opts Options) *Server {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:         svc,
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
		started:     time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), log.GinMiddleware(opts.Logger), securityHeaders())
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/v1")
	api.Use(s.rateLimiter.middleware())
	s.registerRoutes(api)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	Success(c, gin.H{
		"status":       "ok",
		"timestamp":    time.Now().Format(time.RFC3339),
		"uptime":       time.Since(s.started).Round(time.Second).String(),
		"budgets":      len(s.svc.List(c.Request.Context())),
		"rate_limited": s.rateLimiter.hitCount(),
	})
}
