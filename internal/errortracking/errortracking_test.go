package errortracking

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCaptureWithoutDSN(t *testing.T) {
	require.NoError(t, Initialize("", "test", "dev-HEAD"))

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	err := errors.New("write failed")

	require.NotPanics(t, func() {
		CaptureErrWithConnAndStackTrace(context.Background(), err, server, WithField("step", "write_body"))
		CaptureErrWithConnAndStackTrace(context.Background(), err, nil)
		CaptureErrWithStackTrace(err, WithField("listener", "127.0.0.1:8080"))
	})
}
