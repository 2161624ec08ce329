package errortracking

import (
	"context"
	"net"

	"gitlab.com/gitlab-org/labkit/errortracking"
)

// CaptureOption alias to avoid importing labkit/errortracking in internal packages
type CaptureOption = errortracking.CaptureOption

// WithField alias to avoid importing labkit/errortracking in internal packages
func WithField(key, value string) CaptureOption {
	return errortracking.WithField(key, value)
}

// Initialize configures the Sentry client used by Capture* functions. An
// empty dsn leaves error tracking disabled.
func Initialize(dsn, environment, version string) error {
	return errortracking.Initialize(
		errortracking.WithSentryDSN(dsn),
		errortracking.WithVersion(version),
		errortracking.WithLoggerName("webworker"),
		errortracking.WithSentryEnvironment(environment),
	)
}

// CaptureErrWithConnAndStackTrace calls labkit's errortracking function and attaches the
// connection context, remote address, stack trace and any additional fields
func CaptureErrWithConnAndStackTrace(ctx context.Context, err error, conn net.Conn, fields ...CaptureOption) {
	opts := append(
		fields,
		errortracking.WithContext(ctx),
		errortracking.WithStackTrace(),
	)

	if conn != nil && conn.RemoteAddr() != nil {
		opts = append(opts, errortracking.WithField("remote_addr", conn.RemoteAddr().String()))
	}

	errortracking.Capture(err, opts...)
}

// CaptureErrWithStackTrace calls labkit's errortracking function and attaches the stack trace and any additional fields
func CaptureErrWithStackTrace(err error, fields ...CaptureOption) {
	opts := append(
		fields,
		errortracking.WithStackTrace(),
	)

	errortracking.Capture(err, opts...)
}
