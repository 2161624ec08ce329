package worker

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	testlog "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"gitlab.com/cs371/webworker/internal/serving"
	"gitlab.com/cs371/webworker/internal/testhelpers"
	"gitlab.com/cs371/webworker/metrics"
)

var fixedNow = func() time.Time {
	return time.Date(2021, time.September, 13, 15, 4, 5, 0, time.UTC)
}

const testHTML = "<html>\n<cs371server>\n<cs371date>\n</html>\n"

func newTestWorker(t *testing.T, opts ...Option) *Worker {
	t.Helper()

	dir := testhelpers.DocumentRoot(t, map[string]string{
		"test.html":   testHTML,
		"img/dot.png": "\x89PNG\r\n\x1a\n\x00\x01",
		"sub/a.txt":   "plain",
	})

	root, err := serving.NewRoot(dir)
	require.NoError(t, err)

	return New(root, append([]Option{WithNow(fixedNow)}, opts...)...)
}

func TestHandle(t *testing.T) {
	date := fixedNow().Format(serving.DateLayout)

	tests := map[string]struct {
		request     string
		opts        []Option
		status      string
		contentType string
		body        string
	}{
		"text_with_tags": {
			request:     "GET /test.html HTTP/1.1\r\nHost: localhost\r\n\r\n",
			status:      "HTTP/1.1 200 OK",
			contentType: "text/html",
			body:        "<html>This is Mohammad's Server.<cs371server>" + date + "<cs371date></html>",
		},
		"text_with_replaced_tags": {
			request:     "GET /test.html HTTP/1.1\n\n",
			opts:        []Option{WithReplaceTags(true)},
			status:      "HTTP/1.1 200 OK",
			contentType: "text/html",
			body:        "<html>This is Mohammad's Server." + date + "</html>",
		},
		"image": {
			request:     "GET /img/dot.png HTTP/1.1\n\n",
			status:      "HTTP/1.1 200 OK",
			contentType: "image/png",
			body:        "\x89PNG\r\n\x1a\n\x00\x01",
		},
		"unknown_extension_is_html": {
			request:     "GET /sub/a.txt HTTP/1.1\n\n",
			status:      "HTTP/1.1 200 OK",
			contentType: "text/html",
			body:        "plain",
		},
		"missing_image": {
			request:     "GET /missing.png HTTP/1.1\n\n",
			status:      "HTTP/1.1 404 Not Found",
			contentType: "image/png",
			body:        serving.NotFoundBody,
		},
		"directory": {
			request:     "GET /sub HTTP/1.1\n\n",
			status:      "HTTP/1.1 404 Not Found",
			contentType: "text/html",
			body:        serving.NotFoundBody,
		},
		"last_get_line_wins": {
			request:     "GET /missing.png HTTP/1.1\nGET /test.html HTTP/1.1\n\n",
			opts:        []Option{WithReplaceTags(true)},
			status:      "HTTP/1.1 200 OK",
			contentType: "text/html",
			body:        "<html>This is Mohammad's Server." + date + "</html>",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorker(t, tt.opts...)
			conn := newBufferConn(tt.request)

			w.Handle(conn)

			require.True(t, conn.closed)

			resp := testhelpers.ReadResponse(t, &conn.out)
			require.Equal(t, tt.status, resp.StatusLine)
			require.Equal(t, []string{
				"Date: Mon, 13 Sep 2021 15:04:05 GMT",
				"Server: Jon's very own server",
				"Connection: close",
				"Content-Type: " + tt.contentType,
			}, resp.Headers)
			require.Equal(t, tt.body, resp.Body)
		})
	}
}

func TestHandleMalformedRequest(t *testing.T) {
	tests := map[string]struct {
		request string
		reason  string
	}{
		"no_get_line": {
			request: "POST /test.html HTTP/1.1\nHost: localhost\n\n",
			reason:  "no_request_line",
		},
		"empty_request": {
			request: "\n",
			reason:  "no_request_line",
		},
		"closed_before_blank_line": {
			request: "GET /test.html HTTP/1.1\nHost: localhost\n",
			reason:  "incomplete_request",
		},
		"closed_immediately": {
			request: "",
			reason:  "incomplete_request",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			hook := testlog.NewGlobal()
			t.Cleanup(hook.Reset)

			parseErrors := metrics.RequestParseErrors.WithLabelValues(tt.reason)
			before := testutil.ToFloat64(parseErrors)

			w := newTestWorker(t)
			conn := newBufferConn(tt.request)

			require.NotPanics(t, func() { w.Handle(conn) })
			require.True(t, conn.closed)

			resp := testhelpers.ReadResponse(t, &conn.out)
			require.Equal(t, "HTTP/1.1 404 Not Found", resp.StatusLine)
			require.Equal(t, "text/html", resp.Header("Content-Type"))
			require.Equal(t, serving.NotFoundBody, resp.Body)

			require.Equal(t, before+1, testutil.ToFloat64(parseErrors))
			testhelpers.AssertLogContains(t, "could not read request", hook.AllEntries())
		})
	}
}

func TestHandleWriteError(t *testing.T) {
	hook := testlog.NewGlobal()
	t.Cleanup(hook.Reset)

	handlerErrors := metrics.HandlerErrors.WithLabelValues(stepWriteHeader)
	before := testutil.ToFloat64(handlerErrors)

	w := newTestWorker(t)
	conn := newBufferConn("GET /test.html HTTP/1.1\n\n")
	conn.writeErr = errWriteFailed

	w.Handle(conn)

	require.True(t, conn.closed)
	require.Zero(t, conn.out.Len())
	require.Equal(t, before+1, testutil.ToFloat64(handlerErrors))

	testhelpers.AssertLogContains(t, "connection handling failed", hook.AllEntries())

	entry := hook.LastEntry()
	require.Equal(t, stepWriteHeader, entry.Data["step"])
	require.Equal(t, "/test.html", entry.Data["path"])
	require.NotEmpty(t, entry.Data["correlation_id"])
	require.Equal(t, "10.0.0.1:40000", entry.Data["remote_addr"])
}

func TestHandleRecoversFromPanic(t *testing.T) {
	hook := testlog.NewGlobal()
	t.Cleanup(hook.Reset)

	panics := metrics.HandlerErrors.WithLabelValues(stepPanic)
	before := testutil.ToFloat64(panics)

	// a Worker without a root panics on Resolve
	w := New(nil)
	conn := newBufferConn("GET /test.html HTTP/1.1\n\n")

	require.NotPanics(t, func() { w.Handle(conn) })
	require.True(t, conn.closed)
	require.Equal(t, before+1, testutil.ToFloat64(panics))
	testhelpers.AssertLogContains(t, "connection handling failed", hook.AllEntries())
}

func TestHandleSetsDeadlines(t *testing.T) {
	w := newTestWorker(t, WithReadTimeout(time.Minute), WithWriteTimeout(time.Hour))
	conn := newBufferConn("GET /test.html HTTP/1.1\n\n")

	before := time.Now()
	w.Handle(conn)

	require.True(t, conn.readDeadline.After(before))
	require.True(t, conn.writeDeadline.After(before.Add(59*time.Minute)))
}

func TestHandleWithoutTimeoutsLeavesDeadlinesUnset(t *testing.T) {
	w := newTestWorker(t)
	conn := newBufferConn("GET /test.html HTTP/1.1\n\n")

	w.Handle(conn)

	require.True(t, conn.readDeadline.IsZero())
	require.True(t, conn.writeDeadline.IsZero())
}

func TestHandleOverPipe(t *testing.T) {
	w := newTestWorker(t)
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Handle(server)
	}()

	_, err := client.Write([]byte("GET /missing.png HTTP/1.1\n\n"))
	require.NoError(t, err)

	resp := testhelpers.ReadResponse(t, client)
	<-done

	require.Equal(t, "HTTP/1.1 404 Not Found", resp.StatusLine)
	require.Equal(t, "image/png", resp.Header("Content-Type"))
	require.Equal(t, serving.NotFoundBody, resp.Body)
}

func TestResponseMetrics(t *testing.T) {
	responses := metrics.ResponsesTotal.WithLabelValues("200", "text/html")
	responsesBefore := testutil.ToFloat64(responses)
	tagsBefore := testutil.ToFloat64(metrics.TagSubstitutions)
	bytesBefore := testutil.ToFloat64(metrics.ResponseBytes)

	w := newTestWorker(t)
	conn := newBufferConn("GET /test.html HTTP/1.1\n\n")

	w.Handle(conn)

	require.Equal(t, responsesBefore+1, testutil.ToFloat64(responses))
	require.Equal(t, tagsBefore+2, testutil.ToFloat64(metrics.TagSubstitutions))
	require.Equal(t, bytesBefore+float64(conn.out.Len()), testutil.ToFloat64(metrics.ResponseBytes))
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &countingWriter{w: &buf}

	_, err := cw.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = cw.Write([]byte("world"))
	require.NoError(t, err)

	require.Equal(t, int64(11), cw.n)
	require.Equal(t, "hello world", buf.String())
}
