package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"integration-gateway/internal/common/logging"
)

// Server represents an HTTP server
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   logging.Logger
	errCh    chan error
}

// New creates a new server instance listening on addr (":8080", "127.0.0.1:0")
func New(handler http.Handler, addr string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logging.Component("server"),
		errCh:  make(chan error, 1),
	}
}

// Start binds the listener and serves in the background. Errors after a
// successful bind are reported on Errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", err)
			s.errCh <- err
		}
		close(s.errCh)
	}()

	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// Errors reports a fatal serve error; it is closed when serving ends
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
