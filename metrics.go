package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{Handler: mux}
}
