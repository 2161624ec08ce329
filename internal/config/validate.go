package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNoListener                = errors.New("no listener defined, please specify at least one -listen-http or -listen-proxyv2")
	ErrInvalidListenAddress      = errors.New("invalid listen address")
	ErrDocumentRootNotDirectory  = errors.New("document-root must be an existing directory")
	ErrInvalidMaxConns           = errors.New("max-conns must be greater than or equal to 0")
	ErrInvalidRateLimit          = errors.New("rate-limit-source-ip must be greater than or equal to 0")
	ErrInvalidRateLimitBurst     = errors.New("rate-limit-source-ip-burst must be greater than 0 when rate limiting is enabled")
	ErrInvalidTimeout            = errors.New("server timeouts must be greater than or equal to 0")
	ErrInvalidLogFormat          = errors.New("log-format must be either 'text' or 'json'")
	ErrMetricsAddressIsListening = errors.New("metrics-address must not be used as a listener address")
)

func validateConfig(config *Config) error {
	var result *multierror.Error

	for _, err := range []error{
		validateListeners(config),
		validateGeneral(config),
		validateServer(config),
		validateRateLimit(config),
		validateLog(config),
	} {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func validateListeners(config *Config) error {
	if len(config.Listeners.HTTP) == 0 && len(config.Listeners.Proxyv2) == 0 {
		return ErrNoListener
	}

	var result *multierror.Error

	for _, addr := range append(append([]string{}, config.Listeners.HTTP...), config.Listeners.Proxyv2...) {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w %q: %v", ErrInvalidListenAddress, addr, err))
			continue
		}

		if config.General.MetricsAddress != "" && addr == config.General.MetricsAddress {
			result = multierror.Append(result, ErrMetricsAddressIsListening)
		}
	}

	return result.ErrorOrNil()
}

func validateGeneral(config *Config) error {
	var result *multierror.Error

	fi, err := os.Stat(config.General.DocumentRoot)
	if err != nil || !fi.IsDir() {
		result = multierror.Append(result, fmt.Errorf("%w: %q", ErrDocumentRootNotDirectory, config.General.DocumentRoot))
	}

	if config.General.MaxConns < 0 {
		result = multierror.Append(result, ErrInvalidMaxConns)
	}

	return result.ErrorOrNil()
}

func validateServer(config *Config) error {
	if config.Server.ReadTimeout < 0 || config.Server.WriteTimeout < 0 || config.Server.ShutdownTimeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

func validateRateLimit(config *Config) error {
	if config.RateLimit.SourceIPLimitPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	if config.RateLimit.SourceIPLimitPerSecond > 0 && config.RateLimit.SourceIPBurst < 1 {
		return ErrInvalidRateLimitBurst
	}

	return nil
}

func validateLog(config *Config) error {
	switch config.Log.Format {
	case "text", "json":
		return nil
	default:
		return ErrInvalidLogFormat
	}
}
