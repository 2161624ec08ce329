package ratelimiter

import (
	"net"
	"strconv"

	"github.com/sirupsen/logrus"
	"gitlab.com/gitlab-org/labkit/log"
)

// ConnAllowed reports whether conn may be served. Connections exceeding the
// source IP rate are logged and counted. When the rate limiter enforces,
// ConnAllowed returns false for them and the caller closes conn without a
// response.
//
// It is meant to run in the connection's own goroutine: behind a PROXY
// protocol listener RemoteAddr blocks until the header has been read.
func (rl *RateLimiter) ConnAllowed(conn net.Conn) bool {
	if !rl.Enabled() {
		return true
	}

	ip := sourceIP(conn.RemoteAddr())
	if rl.SourceIPAllowed(ip) {
		return true
	}

	rl.logRateLimited(ip)
	rl.blockedCount.WithLabelValues(strconv.FormatBool(rl.enforce)).Inc()

	return !rl.enforce
}

func (rl *RateLimiter) logRateLimited(ip string) {
	log.WithFields(logrus.Fields{
		"rate_limiter_name":             "source_ip",
		"source_ip":                     ip,
		"rate_limiter_enforce":          rl.enforce,
		"rate_limiter_limit_per_second": rl.sourceIPLimitPerSecond,
		"rate_limiter_burst_size":       rl.sourceIPBurstSize,
	}).Info("connection rate-limited")
}
