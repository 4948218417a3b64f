package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"golang.org/x/time/rate"
)

// requestClass separates status polling from calls that touch documents,
// so a client polling /jobs does not use up its upload and review budget.
type requestClass string

const (
	classRead  requestClass = "read"
	classWrite requestClass = "write"
)

var limiterInstance = NewClientRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client address and request class.
type ClientRateLimiter struct {
	clients   map[string]*clientLimiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
	idleTTL   time.Duration
	maxIdle   int
	now       func() time.Time
}

func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients:   make(map[string]*clientLimiter),
		rateLimit: r,
		burstRate: b,
		idleTTL:   config.RATE_LIMITER_IDLE_TTL,
		maxIdle:   config.RATE_LIMITER_MAX_CLIENTS,
		now:       time.Now,
	}
}

// Allow takes one token from the bucket of the request's client.
func (l *ClientRateLimiter) Allow(r *http.Request) (string, bool) {
	key := clientKey(r)
	return key, l.limiterFor(key).Allow()
}

func (l *ClientRateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	c, exists := l.clients[key]
	if !exists {
		if len(l.clients) >= l.maxIdle {
			l.evictIdle(now)
		}
		c = &clientLimiter{limiter: rate.NewLimiter(l.rateLimit, l.burstRate)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// evictIdle drops clients not seen for idleTTL. Callers hold mu.
func (l *ClientRateLimiter) evictIdle(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
}

func (l *ClientRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func clientKey(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return ip + "|" + string(classOf(r))
}

func classOf(r *http.Request) requestClass {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return classRead
	}
	return classWrite
}

//TODO: share the buckets through redis once more than one API process serves requests
