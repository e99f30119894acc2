// Package server exposes the agent's local HTTP surface: health probes,
// Prometheus metrics and the mission status document.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/internal/pkg/metrics"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/options"
)

// ReadyFunc reports whether the agent is ready to serve its mission (broker
// connected, subscriptions registered).
type ReadyFunc func() bool

// Server is the agent's local HTTP endpoint.
type Server struct {
	log     log.Logger
	network string
	addr    string
	srv     *http.Server
}

// New builds the HTTP surface for a sequencer.
func New(opts *options.HttpOptions, seq *mission.Sequencer, ready ReadyFunc) *Server {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/mission/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(seq.Snapshot()); err != nil {
			log.Error(err, "Failed to encode mission status")
		}
	}).Methods(http.MethodGet)

	return &Server{
		log:     log.WithName("http"),
		network: opts.Network,
		addr:    opts.Addr,
		srv: &http.Server{
			Handler:      router,
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
	}
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen(s.network, s.addr)
	if err != nil {
		return err
	}
	s.log.Info("HTTP server listening", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
