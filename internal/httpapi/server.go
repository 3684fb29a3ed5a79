// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package httpapi exposes the authentication operations over HTTP with
// JSON request and response bodies.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// LoginService defines the authentication operations needed by the API.
type LoginService interface {
	// Login authenticates a principal and issues a session token.
	Login(ctx context.Context, identifier, password, role string) (*auth.LoginResult, error)
}

// RegistrationService defines operations for principal registration.
type RegistrationService interface {
	// Register creates a new principal.
	Register(ctx context.Context, username, password, email, role string) (*auth.Principal, error)

	// CheckUsername reports whether a username exists in either collection.
	CheckUsername(ctx context.Context, username string) (bool, error)

	// CheckEmail reports whether an email exists in either collection.
	CheckEmail(ctx context.Context, email string) (bool, error)
}

// ResetService defines the password reset handshake operations.
type ResetService interface {
	// RequestReset returns a reset token for a matched identifier, or an
	// empty token when nothing matched.
	RequestReset(ctx context.Context, identifier string) (string, error)

	// ConfirmReset redeems a reset token with a new password.
	ConfirmReset(ctx context.Context, token, newPassword string) error
}

// Config collects the dependencies for a Server.
type Config struct {
	Addr          string
	Logins        LoginService
	Registrations RegistrationService
	Resets        ResetService

	// Metrics is optional; when nil no counters are recorded.
	Metrics *observability.Metrics

	// Logger is optional; when nil a no-op logger is used.
	Logger *slog.Logger
}

// Server serves the public authentication API.
type Server struct {
	addr          string
	logins        LoginService
	registrations RegistrationService
	resets        ResetService
	metrics       *observability.Metrics
	logger        *slog.Logger

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server from the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		return nil, oops.Errorf("listen address is required")
	}
	if cfg.Logins == nil {
		return nil, oops.Errorf("login service is required")
	}
	if cfg.Registrations == nil {
		return nil, oops.Errorf("registration service is required")
	}
	if cfg.Resets == nil {
		return nil, oops.Errorf("reset service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		addr:          cfg.Addr,
		logins:        cfg.Logins,
		registrations: cfg.Registrations,
		resets:        cfg.Resets,
		metrics:       cfg.Metrics,
		logger:        logger,
	}, nil
}

// Handler returns the API routing handler. Exposed so tests can drive
// the routes without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /reset-password", s.handleResetPassword)
	mux.HandleFunc("POST /check-username", s.handleCheckUsername)
	mux.HandleFunc("POST /check-email", s.handleCheckEmail)
	return mux
}

// Start begins serving the API.
// It returns an error channel that will receive any errors from the HTTP
// server after it starts. The channel is closed when the server stops
// gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
