package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	cfg "gitlab.com/cs371/webworker/internal/config"
	"gitlab.com/cs371/webworker/internal/netutil"
	"gitlab.com/cs371/webworker/internal/ratelimiter"
	"gitlab.com/cs371/webworker/internal/serving"
	"gitlab.com/cs371/webworker/internal/worker"
	"gitlab.com/cs371/webworker/metrics"
)

var errShutdownTimeout = errors.New("timed out waiting for connections to finish")

type theApp struct {
	config      *cfg.Config
	worker      *worker.Worker
	rateLimiter *ratelimiter.RateLimiter
	limiter     *netutil.Limiter

	listeners     []net.Listener
	metricsServer *http.Server
	metricsLn     net.Listener

	// tracks connections handed to the worker; once closing is set no
	// connection is added, so shutdown can Wait on conns
	connsMu sync.Mutex
	closing bool
	conns   sync.WaitGroup
}

func newApp(config *cfg.Config) (*theApp, error) {
	root, err := serving.NewRoot(config.General.DocumentRoot, serving.WithConfinement(config.General.ConfineToRoot))
	if err != nil {
		return nil, err
	}

	a := &theApp{
		config: config,
		worker: worker.New(root,
			worker.WithReplaceTags(config.General.ReplaceTags),
			worker.WithReadTimeout(config.Server.ReadTimeout),
			worker.WithWriteTimeout(config.Server.WriteTimeout),
		),
		rateLimiter: ratelimiter.New(
			ratelimiter.WithSourceIPLimitPerSecond(config.RateLimit.SourceIPLimitPerSecond),
			ratelimiter.WithSourceIPBurstSize(config.RateLimit.SourceIPBurst),
			ratelimiter.WithEnforce(config.RateLimit.SourceIPEnforce),
		),
	}

	if config.General.MaxConns > 0 {
		a.limiter = netutil.NewLimiter(
			config.General.MaxConns,
			metrics.LimitListenerMaxConns,
			metrics.LimitListenerConcurrentConns,
			metrics.LimitListenerWaitingConns,
		)
	}

	if err := a.createListeners(); err != nil {
		a.rateLimiter.Stop()
		return nil, err
	}

	return a, nil
}

func (a *theApp) createListeners() error {
	var configs []listenerConfig

	for _, addr := range a.config.Listeners.HTTP {
		configs = append(configs, listenerConfig{addr: addr})
	}

	for _, addr := range a.config.Listeners.Proxyv2 {
		configs = append(configs, listenerConfig{addr: addr, isProxyV2: true})
	}

	for _, config := range configs {
		l, err := a.listen(config)
		if err != nil {
			a.closeListeners()
			return err
		}

		a.listeners = append(a.listeners, l)
	}

	if addr := a.config.General.MetricsAddress; addr != "" {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			a.closeListeners()
			return fmt.Errorf("failed to listen on metrics address %s: %w", addr, err)
		}

		log.WithField("listener", addr).Debug("Set up metrics listener")

		a.metricsLn = l
		a.metricsServer = newMetricsServer()
	}

	return nil
}

// Run serves all listeners until ctx is done or one of them fails, then
// stops accepting and waits for in-flight connections.
func (a *theApp) Run(ctx context.Context) error {
	defer a.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)

	for _, l := range a.listeners {
		l := l
		g.Go(func() error {
			return a.serve(l)
		})
	}

	if a.metricsServer != nil {
		g.Go(func() error {
			err := a.metricsServer.Serve(a.metricsLn)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}

			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *theApp) shutdown() error {
	log.Info("Shutting down, no new connections are accepted")

	a.connsMu.Lock()
	a.closing = true
	a.connsMu.Unlock()

	var result *multierror.Error

	if err := a.closeListeners(); err != nil {
		result = multierror.Append(result, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("metrics server: %w", err))
		}
	}

	if err := a.waitForConnections(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (a *theApp) waitForConnections(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		select {
		case <-done:
			return nil
		default:
			return errShutdownTimeout
		}
	}
}

func (a *theApp) closeListeners() error {
	var result *multierror.Error

	for _, l := range a.listeners {
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// trackConn registers a connection about to be handled. It returns false
// once shutdown has started, the caller then closes the connection.
func (a *theApp) trackConn() bool {
	a.connsMu.Lock()
	defer a.connsMu.Unlock()

	if a.closing {
		return false
	}

	a.conns.Add(1)

	return true
}
