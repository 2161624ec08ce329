package ratelimiter

import (
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"gitlab.com/cs371/webworker/internal/lru"
	"gitlab.com/cs371/webworker/metrics"
)

const (
	// DefaultSourceIPBurstSize is the maximum burst allowed per source IP.
	// E.g. The first 100 connections within 1s will succeed, but the 101st will fail.
	DefaultSourceIPBurstSize = 100

	defaultSourceIPItems              = 5000
	defaultSourceIPExpirationInterval = time.Minute
)

// Option function to configure a RateLimiter
type Option func(*RateLimiter)

// RateLimiter holds an LRU cache of token bucket limiters, one per source IP.
// It is consulted once per accepted connection, before the request is read.
type RateLimiter struct {
	now                    func() time.Time
	sourceIPLimitPerSecond float64
	sourceIPBurstSize      int
	enforce                bool
	blockedCount           *prometheus.CounterVec
	sourceIPCache          *lru.Cache
}

// New creates a new RateLimiter with default values that can be configured via Option functions
func New(opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		now:               time.Now,
		sourceIPBurstSize: DefaultSourceIPBurstSize,
		enforce:           true,
		blockedCount:      metrics.RateLimitSourceIPBlockedCount,
		sourceIPCache: lru.New(
			"source_ip",
			defaultSourceIPItems,
			defaultSourceIPExpirationInterval,
			metrics.RateLimitCachedEntries,
			metrics.RateLimitCacheRequests,
		),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// WithNow replaces the RateLimiter now function
func WithNow(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithSourceIPLimitPerSecond sets the number of new connections per second
// allowed from a single IP. 0 disables the limit.
func WithSourceIPLimitPerSecond(limit float64) Option {
	return func(rl *RateLimiter) {
		rl.sourceIPLimitPerSecond = limit
	}
}

// WithSourceIPBurstSize configures burst per source IP for the RateLimiter
func WithSourceIPBurstSize(burst int) Option {
	return func(rl *RateLimiter) {
		rl.sourceIPBurstSize = burst
	}
}

// WithEnforce sets whether limited connections are refused or only reported
func WithEnforce(enforce bool) Option {
	return func(rl *RateLimiter) {
		rl.enforce = enforce
	}
}

// Enabled reports whether a limit has been configured
func (rl *RateLimiter) Enabled() bool {
	return rl.sourceIPLimitPerSecond > 0
}

func (rl *RateLimiter) getSourceIPLimiter(sourceIP string) *rate.Limiter {
	limiterI, _ := rl.sourceIPCache.FindOrFetch(sourceIP, func() (interface{}, error) {
		return rate.NewLimiter(rate.Limit(rl.sourceIPLimitPerSecond), rl.sourceIPBurstSize), nil
	})

	return limiterI.(*rate.Limiter)
}

// SourceIPAllowed checks whether a new connection from sourceIP is within
// the limit. It always returns true when the limiter is disabled.
func (rl *RateLimiter) SourceIPAllowed(sourceIP string) bool {
	if !rl.Enabled() {
		return true
	}

	limiter := rl.getSourceIPLimiter(sourceIP)

	// AllowN allows us to use the rl.now function, so we can test this more easily.
	return limiter.AllowN(rl.now(), 1)
}

// Stop releases the resources of the underlying cache
func (rl *RateLimiter) Stop() {
	rl.sourceIPCache.Stop()
}

func sourceIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	remoteAddr := addr.String()
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}
