package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type MetricsServer struct {
	server *http.Server
	addr   string
	log    zerolog.Logger
}

func NewMetricsServer(addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &MetricsServer{
		server: server,
		addr:   addr,
		log:    logger,
	}
}

// Addr returns the address the server listens on. After Start it holds the
// resolved port when the configured one was 0.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Start binds the listener and serves metrics in the background until ctx
// is done.
func (s *MetricsServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()

	go func() {
		s.log.Info().Str("addr", s.addr).Msg("Starting metrics server")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("Error shutting down metrics server")
		}
	}()

	return nil
}
