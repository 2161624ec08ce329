package main

import (
	"errors"
	"fmt"
	"net"

	proxyproto "github.com/pires/go-proxyproto"
	log "github.com/sirupsen/logrus"

	"gitlab.com/cs371/webworker/internal/errortracking"
	"gitlab.com/cs371/webworker/internal/netutil"
	"gitlab.com/cs371/webworker/metrics"
)

type listenerConfig struct {
	addr      string
	isProxyV2 bool
}

func (a *theApp) listen(config listenerConfig) (net.Listener, error) {
	l, err := net.Listen("tcp", config.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.addr, err)
	}

	log.WithFields(log.Fields{
		"listener": config.addr,
		"proxyv2":  config.isProxyV2,
	}).Debug("Set up listener")

	if a.limiter != nil {
		l = netutil.SharedLimitListener(l, a.limiter)
	}

	if config.isProxyV2 {
		l = &proxyproto.Listener{
			Listener: l,
			Policy: func(upstream net.Addr) (proxyproto.Policy, error) {
				return proxyproto.REQUIRE, nil
			},
		}
	}

	return l, nil
}

// serve accepts connections until l is closed and hands each one to the
// worker in its own goroutine
func (a *theApp) serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				log.WithError(err).Warn("Temporary error accepting connection")
				continue
			}

			errortracking.CaptureErrWithStackTrace(err, errortracking.WithField("listener", l.Addr().String()))
			return fmt.Errorf("accepting on %s: %w", l.Addr(), err)
		}

		if !a.trackConn() {
			conn.Close()
			return nil
		}

		metrics.ConnectionsAccepted.Inc()

		go func() {
			defer a.conns.Done()
			a.handle(conn)
		}()
	}
}

func (a *theApp) handle(conn net.Conn) {
	if !a.rateLimiter.ConnAllowed(conn) {
		conn.Close()
		return
	}

	a.worker.Handle(conn)
}
