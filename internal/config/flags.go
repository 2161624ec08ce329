package config

import (
	"time"

	"github.com/namsral/flag"
)

var (
	documentRoot   = flag.String("document-root", ".", "The directory files are served from, request paths are resolved relative to it")
	metricsAddress = flag.String("metrics-address", "", "The address to listen on for metrics requests")
	maxConns       = flag.Int("max-conns", 0, "Limit on the number of concurrent connections to the HTTP and proxyv2 listeners, 0 for no limit")
	replaceTags    = flag.Bool("replace-tags", false, "Write only the substitution for <cs371date> and <cs371server> lines instead of the substitution followed by the tag line")
	confineToRoot  = flag.Bool("confine-to-root", false, "Answer 404 for paths that resolve outside of the document root through '..' or symlinks")

	// Server timeouts, applied to each accepted connection
	serverReadTimeout     = flag.Duration("server-read-timeout", 0, "Maximum duration for reading the request line and headers. A zero value means there will be no timeout.")
	serverWriteTimeout    = flag.Duration("server-write-timeout", 0, "Maximum duration for writing the response. A zero value means there will be no timeout.")
	serverShutdownTimeout = flag.Duration("server-shutdown-timeout", 30*time.Second, "Maximum time to wait for in-flight connections on shutdown (default: 30s)")

	// Connection rate limits
	rateLimitSourceIP        = flag.Float64("rate-limit-source-ip", 0.0, "Rate limit new connections per second from a single IP, 0 means is disabled")
	rateLimitSourceIPBurst   = flag.Int("rate-limit-source-ip-burst", 100, "Rate limit new connections from a single IP, maximum burst allowed per second")
	rateLimitSourceIPEnforce = flag.Bool("rate-limit-source-ip-enforce", true, "Close rate limited connections, when false they are only logged and counted")

	logFormat         = flag.String("log-format", "json", "The log output format: 'text' or 'json'")
	logVerbose        = flag.Bool("log-verbose", false, "Verbose logging")
	sentryDSN         = flag.String("sentry-dsn", "", "The address for sending sentry crash reporting to")
	sentryEnvironment = flag.String("sentry-environment", "", "The environment for sentry crash reporting")

	showVersion = flag.Bool("version", false, "Show version")

	// See initFlags()
	listenHTTP    = MultiStringFlag{separator: ","}
	listenProxyv2 = MultiStringFlag{separator: ","}
)

// initFlags will be called from LoadConfig
func initFlags() {
	flag.Var(&listenHTTP, "listen-http", "The address(es) to listen on for HTTP requests (default \""+DefaultListenHTTP+"\" when no listener is given)")
	flag.Var(&listenProxyv2, "listen-proxyv2", "The address(es) to listen on for HTTP requests behind a PROXY protocol v1/v2 load balancer (https://www.haproxy.org/download/1.8/doc/proxy-protocol.txt)")

	// read from -config=/path/to/webworker-config
	flag.String(flag.DefaultConfigFlagname, "", "path to config file")

	flag.Parse()
}
