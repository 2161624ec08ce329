package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	cfg "gitlab.com/cs371/webworker/internal/config"
	"gitlab.com/cs371/webworker/internal/errortracking"
	"gitlab.com/cs371/webworker/internal/logging"
	"gitlab.com/cs371/webworker/internal/validateargs"
	"gitlab.com/cs371/webworker/metrics"
)

// VERSION stores the information about the semantic version of application
var VERSION = "dev"

// REVISION stores the information about the git revision of application
var REVISION = "HEAD"

func appMain() {
	if err := validateargs.Secrets(os.Args[1:]); err != nil {
		log.WithError(err).Warn("Using secrets as arguments")
	}

	config, err := cfg.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	printVersion(config.General.ShowVersion, VERSION)

	if err := logging.ConfigureLogging(config.Log.Format, config.Log.Verbose); err != nil {
		log.WithError(err).Fatal("Failed to initialize logging")
	}

	if config.Sentry.DSN != "" {
		if err := errortracking.Initialize(config.Sentry.DSN, config.Sentry.Environment, fmt.Sprintf("%s-%s", VERSION, REVISION)); err != nil {
			log.WithError(err).Fatal("Failed to initialize error tracking")
		}
	}

	log.WithFields(log.Fields{
		"version":  VERSION,
		"revision": REVISION,
	}).Print("CS371 Web Worker")

	cfg.LogConfig(config)

	a, err := newApp(config)
	if err != nil {
		capturingFatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		capturingFatal(err)
	}

	log.Info("Shut down cleanly")
}

func printVersion(showVersion bool, version string) {
	if showVersion {
		fmt.Fprintf(os.Stdout, "%s\n", version)
		os.Exit(0)
	}
}

func main() {
	log.SetOutput(os.Stderr)

	metrics.MustRegister()

	appMain()
}
