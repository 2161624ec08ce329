package netutil

import (
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SharedLimitListener returns a Listener that accepts simultaneous
// connections from the provided Listener only if a shared availability pool
// permits it. A slot is held from Accept until the connection is closed.
// Based on https://godoc.org/golang.org/x/net/netutil
func SharedLimitListener(listener net.Listener, limiter *Limiter) net.Listener {
	return &sharedLimitListener{
		Listener: listener,
		limiter:  limiter,
		done:     make(chan struct{}),
	}
}

// Limiter is a pool of connection slots that can be shared by several
// listeners. Use NewLimiter to create an instance
type Limiter struct {
	sem                  chan struct{}
	concurrentConnsCount prometheus.Gauge
	waitingConnsCount    prometheus.Gauge
}

// NewLimiter creates a Limiter with n slots reporting to the given gauges
func NewLimiter(n int, maxConnsCount, concurrentConnsCount, waitingConnsCount prometheus.Gauge) *Limiter {
	maxConnsCount.Set(float64(n))

	return &Limiter{
		sem:                  make(chan struct{}, n),
		concurrentConnsCount: concurrentConnsCount,
		waitingConnsCount:    waitingConnsCount,
	}
}

// InUse returns the number of slots currently held
func (l *Limiter) InUse() int {
	return len(l.sem)
}

type sharedLimitListener struct {
	net.Listener
	closeOnce sync.Once     // ensures the done chan is only closed once
	limiter   *Limiter      // A pool of connection slots shared with other listeners
	done      chan struct{} // no values sent; closed when Close is called
}

// acquire blocks until a slot is free. It returns false without a slot
// when the listener is closed first.
func (l *sharedLimitListener) acquire() bool {
	l.limiter.waitingConnsCount.Inc()
	defer l.limiter.waitingConnsCount.Dec()

	select {
	case <-l.done:
		return false
	case l.limiter.sem <- struct{}{}:
		l.limiter.concurrentConnsCount.Inc()
		return true
	}
}

func (l *sharedLimitListener) release() {
	<-l.limiter.sem
	l.limiter.concurrentConnsCount.Dec()
}

func (l *sharedLimitListener) Accept() (net.Conn, error) {
	acquired := l.acquire()
	// If the semaphore isn't acquired because the listener was closed, expect
	// that this call to accept won't block, but immediately return an error.
	c, err := l.Listener.Accept()
	if err != nil {
		if acquired {
			l.release()
		}
		return nil, err
	}

	if !acquired {
		c.Close()
		return nil, net.ErrClosed
	}

	return &sharedLimitListenerConn{Conn: c, release: l.release}, nil
}

func (l *sharedLimitListener) Close() error {
	err := l.Listener.Close()
	l.closeOnce.Do(func() { close(l.done) })
	return err
}

type sharedLimitListenerConn struct {
	net.Conn
	releaseOnce sync.Once
	release     func()
}

func (c *sharedLimitListenerConn) Close() error {
	err := c.Conn.Close()
	c.releaseOnce.Do(c.release)
	return err
}
