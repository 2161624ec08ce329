package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/gitlab-org/labkit/correlation"

	"gitlab.com/cs371/webworker/internal/errortracking"
	"gitlab.com/cs371/webworker/internal/logging"
	"gitlab.com/cs371/webworker/internal/request"
	"gitlab.com/cs371/webworker/internal/serving"
	"gitlab.com/cs371/webworker/metrics"
)

const (
	stepWriteHeader = "write_header"
	stepWriteBody   = "write_body"
	stepDeadline    = "set_deadline"
	stepPanic       = "panic"
)

// Option configures a Worker
type Option func(*Worker)

// Worker answers a single request on every connection handed to Handle.
// It holds no per-connection state and is safe for concurrent use.
type Worker struct {
	root         *serving.Root
	content      serving.ContentOptions
	now          func() time.Time
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New returns a Worker serving files below root
func New(root *serving.Root, opts ...Option) *Worker {
	w := &Worker{
		root: root,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.content.Now = w.now

	return w
}

// WithReplaceTags makes tag lines be replaced instead of prefixed
func WithReplaceTags(replace bool) Option {
	return func(w *Worker) {
		w.content.ReplaceTags = replace
	}
}

// WithNow replaces the clock used for the Date header and date tags
func WithNow(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// WithReadTimeout sets a deadline for reading the request. 0 means none.
func WithReadTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.readTimeout = d
	}
}

// WithWriteTimeout sets a deadline for writing the response. 0 means none.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.writeTimeout = d
	}
}

// Handle reads one request from conn, writes the response and closes conn.
// The connection is closed on every path, including a panic.
func (w *Worker) Handle(conn net.Conn) {
	start := time.Now()
	ctx := correlation.ContextWithCorrelation(context.Background(), correlation.SafeRandomID())
	c := &connection{
		ctx:    ctx,
		conn:   conn,
		logger: logging.LogConn(ctx, conn),
	}

	metrics.ConnectionsActive.Inc()
	defer func() {
		metrics.ConnectionsActive.Dec()
		metrics.HandlingDuration.Observe(time.Since(start).Seconds())
	}()

	defer conn.Close()

	defer func() {
		if r := recover(); r != nil {
			c.fail(stepPanic, fmt.Errorf("recovered from panic: %v", r))
		}
	}()

	if step, err := w.serve(c); err != nil {
		c.fail(step, err)
	}
}

// connection is the state of a single Handle call
type connection struct {
	ctx    context.Context
	conn   net.Conn
	logger *logrus.Entry
}

// serve runs the read and write steps. On failure it returns the name of
// the step that failed; the remaining steps are skipped.
func (w *Worker) serve(c *connection) (string, error) {
	if err := setDeadline(c.conn.SetReadDeadline, w.readTimeout); err != nil {
		return stepDeadline, err
	}

	path, err := request.ReadPath(bufio.NewReader(c.conn))
	if err != nil {
		// a partial request is answered as not found, whatever path it had
		c.logger.WithError(err).WithField("partial_path", path).Warn("could not read request")
		metrics.RequestParseErrors.WithLabelValues(parseErrorReason(err)).Inc()
		path = ""
	}

	res := w.root.Resolve(path)
	status := strconv.Itoa(int(res.Status()))

	c.logger = c.logger.WithFields(logrus.Fields{
		"path":         res.Path,
		"status":       status,
		"content_type": res.ContentType,
	})

	if err := setDeadline(c.conn.SetWriteDeadline, w.writeTimeout); err != nil {
		return stepDeadline, err
	}

	cw := &countingWriter{w: c.conn}
	defer func() {
		metrics.ResponseBytes.Add(float64(cw.n))
	}()

	if err := serving.WriteHeader(cw, res, w.now()); err != nil {
		return stepWriteHeader, fmt.Errorf("writing header: %w", err)
	}

	substituted, err := serving.WriteContent(cw, res, w.content)
	metrics.TagSubstitutions.Add(float64(substituted))
	if err != nil {
		return stepWriteBody, fmt.Errorf("writing body: %w", err)
	}

	metrics.ResponsesTotal.WithLabelValues(status, res.ContentType).Inc()
	c.logger.WithField("bytes", cw.n).Debug("response written")

	return "", nil
}

func (c *connection) fail(step string, err error) {
	metrics.HandlerErrors.WithLabelValues(step).Inc()
	c.logger.WithError(err).WithField("step", step).Error("connection handling failed")
	errortracking.CaptureErrWithConnAndStackTrace(c.ctx, err, c.conn, errortracking.WithField("step", step))
}

func setDeadline(set func(time.Time) error, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	return set(time.Now().Add(d))
}

func parseErrorReason(err error) string {
	switch {
	case errors.Is(err, request.ErrNoRequestLine):
		return "no_request_line"
	case errors.Is(err, request.ErrIncompleteRequest):
		return "incomplete_request"
	default:
		return "unknown"
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
