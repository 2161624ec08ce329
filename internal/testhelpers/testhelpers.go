package testhelpers

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Response is a raw response split at the first blank line
type Response struct {
	StatusLine string
	Headers    []string
	Body       string
}

// Header returns the value of the first header called name
func (r Response) Header(name string) string {
	prefix := name + ": "
	for _, h := range r.Headers {
		if strings.HasPrefix(h, prefix) {
			return strings.TrimPrefix(h, prefix)
		}
	}

	return ""
}

// ReadResponse reads r until EOF and splits it into status line, headers
// and body. The header block must use bare "\n" line endings.
func ReadResponse(tb testing.TB, r io.Reader) Response {
	tb.Helper()

	raw, err := io.ReadAll(bufio.NewReader(r))
	require.NoError(tb, err)

	i := strings.Index(string(raw), "\n\n")
	require.GreaterOrEqual(tb, i, 0, "response has no blank line: %q", raw)

	lines := strings.Split(string(raw[:i]), "\n")

	return Response{
		StatusLine: lines[0],
		Headers:    lines[1:],
		Body:       string(raw[i+2:]),
	}
}

// AssertLogContains checks that wantLogEntry is contained in at least one of the log entries
func AssertLogContains(t *testing.T, wantLogEntry string, entries []*logrus.Entry) {
	t.Helper()

	if wantLogEntry != "" {
		messages := make([]string, len(entries))
		for k, entry := range entries {
			messages[k] = entry.Message
		}

		require.Contains(t, messages, wantLogEntry)
	}
}
