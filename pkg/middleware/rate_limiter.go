package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"

	"github.com/terang55/rainbow-rich-auth-server/internal/metrics"
)

// RateLimiter allows at most limit requests per client IP in each fixed
// window.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	requests  map[string]int
	lastReset time.Time
	now       func() time.Time
	logger    *slog.Logger
}

func NewRateLimiter(limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		window:    window,
		requests:  make(map[string]int),
		lastReset: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

// Run resets stale windows in the background until ctx is done, so idle
// clients do not pin memory.
func (r *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			r.resetIfDue()
			r.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetIfDue()

	count := r.requests[ip]
	if count >= r.limit {
		return false
	}

	r.requests[ip] = count + 1
	return true
}

func (r *RateLimiter) resetIfDue() {
	now := r.now()
	if now.Sub(r.lastReset) >= r.window {
		r.requests = make(map[string]int)
		r.lastReset = now
	}
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := clientIP(req)
		if !r.Allow(ip) {
			metrics.RateLimitedTotal.Inc()
			r.logger.WarnContext(req.Context(), "rate limit exceeded",
				"remote_addr", ip, "path", req.URL.Path)

			w.Header().Set("Retry-After", retryAfter(r.window))
			render.Status(req, http.StatusTooManyRequests)
			render.JSON(w, req, ErrorResponse{Error: "Too many requests"})
			return
		}

		next.ServeHTTP(w, req)
	})
}

// clientIP strips the port from RemoteAddr when present. chi's RealIP
// middleware has already replaced it with the forwarded address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
