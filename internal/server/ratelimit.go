package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	rateLimitWindow = time.Minute
	rateLimitBurst  = 30
)

// rateLimiter counts requests per (action, remote host) in fixed
// one-minute windows. Counters from old windows are discarded lazily.
type rateLimiter struct {
	mu      sync.Mutex
	window  time.Time
	counts  map[string]int
	nowFunc func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		counts:  make(map[string]int),
		nowFunc: time.Now,
	}
}

func (l *rateLimiter) allow(action, host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc().Truncate(rateLimitWindow)
	if !now.Equal(l.window) {
		l.window = now
		l.counts = make(map[string]int)
	}
	key := action + "|" + host
	if l.counts[key] >= rateLimitBurst {
		return false
	}
	l.counts[key]++
	return true
}

func (s *Server) enforceRateLimit(w http.ResponseWriter, r *http.Request, action string) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if s.limiter.allow(action, host) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, "too many requests")
	return false
}
