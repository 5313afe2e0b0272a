// internal/apiserver/server.go
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalnine/wildguard/internal/config"
)

// Server is the demo rangers API
type Server struct {
	cfg     *config.ServerConfig
	db      *DB
	hub     *Hub
	metrics *Metrics
	log     log.Interface
	server  *http.Server
}

// NewServer opens the database and wires the routes
func NewServer(cfg *config.ServerConfig, logger log.Interface) (*Server, error) {
	db, err := NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	hub := NewHub(metrics, logger.WithField("component", "hub"))
	api := NewAPI(db, hub, metrics, logger.WithField("component", "api"))

	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// No WriteTimeout: the alert stream stays open indefinitely
	server := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		cfg:     cfg,
		db:      db,
		hub:     hub,
		metrics: metrics,
		log:     logger,
		server:  server,
	}, nil
}

// Hub returns the alert hub
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the route multiplexer
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.serve(ctx, ln)
}

// RunAndGetAddr starts serving in the background and returns the bound
// address once the listener is up. Serving stops when ctx is done.
func (s *Server) RunAndGetAddr(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	go func() {
		if err := s.serve(ctx, ln); err != nil {
			s.log.WithError(err).Error("server stopped")
		}
	}()
	return ln.Addr().String(), nil
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.log.WithFields(log.Fields{
		"addr": ln.Addr().String(),
		"db":   s.cfg.DBPath,
	}).Info("API server starting")

	if s.cfg.AlertInterval > 0 {
		emitter := NewEmitter(s.hub, s.cfg.AlertInterval, s.log.WithField("component", "emitter"))
		go emitter.Run(ctx)
	}

	// Request contexts end with ctx so open alert streams let Shutdown finish
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.server.Close()
		}
	case runErr = <-errCh:
	}

	if err := s.db.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
