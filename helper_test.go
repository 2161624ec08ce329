package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfg "gitlab.com/cs371/webworker/internal/config"
	"gitlab.com/cs371/webworker/internal/testhelpers"
)

const testHTML = "<html>\n<cs371server>\n</html>\n"

func newTestConfig(t *testing.T) *cfg.Config {
	t.Helper()

	return &cfg.Config{
		General: cfg.General{
			DocumentRoot: testhelpers.DocumentRoot(t, map[string]string{
				"test.html":     testHTML,
				"image/dot.gif": "GIF89a\x01\x00",
			}),
		},
		Listeners: cfg.Listeners{
			HTTP: []string{"127.0.0.1:0"},
		},
		Server: cfg.Server{
			ShutdownTimeout: 5 * time.Second,
		},
		RateLimit: cfg.RateLimit{
			SourceIPBurst:   100,
			SourceIPEnforce: true,
		},
	}
}

// runTestApp starts an app for config and returns it with a function that
// stops it and returns the error Run returned
func runTestApp(t *testing.T, config *cfg.Config) (*theApp, func() error) {
	t.Helper()

	a, err := newApp(config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- a.Run(ctx)
	}()

	var stopped bool
	var runErr error

	stop := func() error {
		if stopped {
			return runErr
		}
		stopped = true

		cancel()

		select {
		case runErr = <-errCh:
		case <-time.After(10 * time.Second):
			t.Fatal("app did not stop in time")
		}

		return runErr
	}
	t.Cleanup(func() { stop() })

	return a, stop
}

func dial(t *testing.T, l net.Listener) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func get(t *testing.T, l net.Listener, request string) testhelpers.Response {
	t.Helper()

	conn := dial(t, l)

	_, err := conn.Write([]byte(request))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	return testhelpers.ReadResponse(t, conn)
}
