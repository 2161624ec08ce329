package logging

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"gitlab.com/gitlab-org/labkit/correlation"
	"gitlab.com/gitlab-org/labkit/log"
)

// ErrUnknownLogFormat is returned for formats other than "text" and "json"
var ErrUnknownLogFormat = errors.New("unknown log format")

// ConfigureLogging will initialize the system logger.
func ConfigureLogging(format string, verbose bool) error {
	var levelOption log.LoggerOption

	switch format {
	case "":
		format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, format)
	}

	if verbose {
		levelOption = log.WithLogLevel("trace")
	} else {
		levelOption = log.WithLogLevel("info")
	}

	_, err := log.Initialize(
		log.WithFormatter(format),
		levelOption,
	)
	return err
}

// LogConn will inject the correlation ID stored in ctx and the remote
// address of conn to the logged messages
func LogConn(ctx context.Context, conn net.Conn) *logrus.Entry {
	fields := log.Fields{
		"correlation_id": correlation.ExtractFromContext(ctx),
	}

	if conn != nil && conn.RemoteAddr() != nil {
		fields["remote_addr"] = conn.RemoteAddr().String()
	}

	return log.WithFields(fields)
}
