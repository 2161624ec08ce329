package config

import (
	"time"

	"github.com/namsral/flag"
	log "github.com/sirupsen/logrus"
)

// DefaultListenHTTP is used when neither -listen-http nor -listen-proxyv2 is set
const DefaultListenHTTP = ":8080"

// Config stores all the config options relevant to the web worker.
type Config struct {
	General   General
	Listeners Listeners
	Server    Server
	RateLimit RateLimit
	Log       Log
	Sentry    Sentry
}

// General groups settings that are general to the web worker and can not
// be categorized under other head.
type General struct {
	DocumentRoot   string
	MetricsAddress string
	MaxConns       int
	ReplaceTags    bool
	ConfineToRoot  bool
	ShowVersion    bool
}

// Listeners groups the addresses to listen on
type Listeners struct {
	HTTP    []string
	Proxyv2 []string
}

// Server groups per connection timeouts and shutdown settings
type Server struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RateLimit groups settings related to limiting new connections per source IP
type RateLimit struct {
	SourceIPLimitPerSecond float64
	SourceIPBurst          int
	SourceIPEnforce        bool
}

// Log groups settings related to configuring logging
type Log struct {
	Format  string
	Verbose bool
}

// Sentry groups settings related to configuring Sentry
type Sentry struct {
	DSN         string
	Environment string
}

func loadConfig() (*Config, error) {
	config := &Config{
		General: General{
			DocumentRoot:   *documentRoot,
			MetricsAddress: *metricsAddress,
			MaxConns:       *maxConns,
			ReplaceTags:    *replaceTags,
			ConfineToRoot:  *confineToRoot,
			ShowVersion:    *showVersion,
		},
		Listeners: Listeners{
			HTTP:    listenHTTP.Split(),
			Proxyv2: listenProxyv2.Split(),
		},
		Server: Server{
			ReadTimeout:     *serverReadTimeout,
			WriteTimeout:    *serverWriteTimeout,
			ShutdownTimeout: *serverShutdownTimeout,
		},
		RateLimit: RateLimit{
			SourceIPLimitPerSecond: *rateLimitSourceIP,
			SourceIPBurst:          *rateLimitSourceIPBurst,
			SourceIPEnforce:        *rateLimitSourceIPEnforce,
		},
		Log: Log{
			Format:  *logFormat,
			Verbose: *logVerbose,
		},
		Sentry: Sentry{
			DSN:         *sentryDSN,
			Environment: *sentryEnvironment,
		},
	}

	if len(config.Listeners.HTTP) == 0 && len(config.Listeners.Proxyv2) == 0 {
		config.Listeners.HTTP = []string{DefaultListenHTTP}
	}

	// -version must work without a valid configuration
	if config.General.ShowVersion {
		return config, nil
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LogConfig logs the configuration the daemon starts with
func LogConfig(config *Config) {
	log.WithFields(log.Fields{
		"default-config-filename":      flag.DefaultConfigFlagname,
		"document-root":                config.General.DocumentRoot,
		"metrics-address":              config.General.MetricsAddress,
		"max-conns":                    config.General.MaxConns,
		"replace-tags":                 config.General.ReplaceTags,
		"confine-to-root":              config.General.ConfineToRoot,
		"listen-http":                  config.Listeners.HTTP,
		"listen-proxyv2":               config.Listeners.Proxyv2,
		"server-read-timeout":          config.Server.ReadTimeout,
		"server-write-timeout":         config.Server.WriteTimeout,
		"server-shutdown-timeout":      config.Server.ShutdownTimeout,
		"rate-limit-source-ip":         config.RateLimit.SourceIPLimitPerSecond,
		"rate-limit-source-ip-burst":   config.RateLimit.SourceIPBurst,
		"rate-limit-source-ip-enforce": config.RateLimit.SourceIPEnforce,
		"log-format":                   config.Log.Format,
		"log-verbose":                  config.Log.Verbose,
		"sentry-environment":           config.Sentry.Environment,
	}).Debug("Start daemon with configuration")
}

// LoadConfig parses configuration settings passed as command line arguments or
// via config file, and populates a Config object with those values
func LoadConfig() (*Config, error) {
	initFlags()

	return loadConfig()
}
