package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/https-app/internal/config"
	"github.com/information-sharing-networks/https-app/internal/logger"
	"github.com/information-sharing-networks/https-app/internal/server/middleware"
)

type Server struct {
	config  *config.ServerEnvironment
	logger  *slog.Logger
	app     *chi.Mux
	handler http.Handler
}

// ListenError is returned by Listen when the address cannot be bound.
type ListenError struct {
	Addr string
	Err  error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

func (e *ListenError) Unwrap() error { return e.Err }

// NewServer builds the application (see NewApp) and wraps it with the transport middleware.
//
// The returned server can be embedded without listening (Handler) or started with Listen and Serve.
func NewServer(cfg *config.ServerEnvironment, logger *slog.Logger, registerRoutes RouteRegistrar) (*Server, error) {
	app, err := NewApp(AppOptions{
		MaxRequestBody:           cfg.MaxRequestBody,
		URLEncodedParameterLimit: cfg.URLEncodedParameterLimit,
	}, registerRoutes)
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	server := &Server{
		config: cfg,
		logger: logger,
		app:    app,
	}
	server.setupMiddleware()

	return server, nil
}

func (s *Server) setupMiddleware() {
	s.handler = chi.Chain(
		logger.RequestID,
		chimiddleware.RealIP,
		logger.RequestLogging(s.logger),
		chimiddleware.Recoverer,
		middleware.SecurityHeaders(s.config.IsProduction()),
		middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst),
		middleware.RequestSizeLimit(s.config.MaxRequestBody),
	).Handler(s.app)
}

// App returns the application router (body parsers and the registered routes only).
func (s *Server) App() *chi.Mux {
	return s.app
}

// Handler returns the application wrapped with the transport middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen binds the configured address and returns a TLS listener using cert.
//
// Once the address is bound the startup line is logged, including the public URL.
func (s *Server) Listen(cert tls.Certificate) (net.Listener, error) {
	addr := s.config.Address()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &ListenError{Addr: addr, Err: err}
	}

	port := s.config.Port
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	s.logger.Info("HTTPS server is running",
		slog.String("url", fmt.Sprintf("https://localhost:%d", port)),
		slog.String("environment", s.config.Environment),
		slog.String("address", ln.Addr().String()))

	return tls.NewListener(ln, s.tlsConfig(cert)), nil
}

func (s *Server) tlsConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsVersion(s.config.TLSMinVersion),
		NextProtos:   []string{"h2", "http/1.1"},
	}
}

// Serve handles connections from ln until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serverErrors := make(chan error, 1)

	go func() {
		err := httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTPS server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTPS server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTPS server shutdown failed: %w", err)
	}

	s.logger.Info("HTTPS server shutdown complete")
	return nil
}
