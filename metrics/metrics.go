package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionsAccepted counts the connections handed to a worker
	ConnectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webworker_connections_accepted_total",
		Help: "The total number of connections handed to a worker",
	})

	// ConnectionsActive is the number of connections currently being handled
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webworker_connections_active",
		Help: "The number of connections currently being handled",
	})

	// ResponsesTotal counts the responses that were fully written, by status code
	ResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webworker_responses_total",
		Help: "The total number of responses fully written",
	},
		[]string{"status_code", "content_type"},
	)

	// HandlingDuration records the time from accept to close of a connection
	HandlingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "webworker_connection_duration_seconds",
		Help:    "Time spent handling a connection, from accept to close",
		Buckets: prometheus.DefBuckets,
	})

	// ResponseBytes counts the bytes written to clients, header included
	ResponseBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webworker_response_bytes_total",
		Help: "The total number of bytes written to clients",
	})

	// TagSubstitutions counts the tags substituted in text resources
	TagSubstitutions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webworker_tag_substitutions_total",
		Help: "The total number of tags substituted in text resources",
	})

	// RequestParseErrors counts connections without a usable request line
	RequestParseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webworker_request_parse_errors_total",
		Help: "The total number of requests without a usable GET line",
	},
		[]string{"reason"},
	)

	// HandlerErrors counts connections aborted because of an I/O error or panic
	HandlerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webworker_handler_errors_total",
		Help: "The total number of connections aborted by an error",
	},
		[]string{"step"},
	)

	// LimitListenerMaxConns is the size of the shared connection pool
	LimitListenerMaxConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webworker_limit_listener_max_conns",
		Help: "The maximum number of concurrent connections allowed by the limit listener",
	})

	// LimitListenerConcurrentConns is the number of connections holding a slot
	LimitListenerConcurrentConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webworker_limit_listener_concurrent_conns",
		Help: "The number of concurrent connections holding a limit listener slot",
	})

	// LimitListenerWaitingConns is the number of accepts waiting for a slot
	LimitListenerWaitingConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webworker_limit_listener_waiting_conns",
		Help: "The number of accepts waiting for a limit listener slot",
	})

	// RateLimitSourceIPBlockedCount counts connections that exceeded the per source IP rate
	RateLimitSourceIPBlockedCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webworker_rate_limit_source_ip_blocked_count",
		Help: "The number of connections that exceeded the source IP rate limit",
	},
		[]string{"enforced"},
	)

	// RateLimitCachedEntries is the number of entries in the rate limiter caches
	RateLimitCachedEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "webworker_rate_limit_cached_entries",
		Help: "The number of entries in the rate limiter caches",
	},
		[]string{"op"},
	)

	// RateLimitCacheRequests counts the rate limiter cache lookups by result
	RateLimitCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webworker_rate_limit_cache_requests",
		Help: "The number of rate limiter cache lookups by op and cache result",
	},
		[]string{"op", "cache"},
	)
)

// MustRegister collectors with the Prometheus client
func MustRegister() {
	prometheus.MustRegister(
		ConnectionsAccepted,
		ConnectionsActive,
		ResponsesTotal,
		HandlingDuration,
		ResponseBytes,
		TagSubstitutions,
		RequestParseErrors,
		HandlerErrors,
		LimitListenerMaxConns,
		LimitListenerConcurrentConns,
		LimitListenerWaitingConns,
		RateLimitSourceIPBlockedCount,
		RateLimitCachedEntries,
		RateLimitCacheRequests,
	)
}
