// Package server assembles the HTTP surface: routing, middleware, and the
// listener lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	healthhandler "loftbase/identity/internal/health/handler"
	identityhandler "loftbase/identity/internal/identity/handler"
	"loftbase/identity/internal/server/middleware"
)

// NewRouter builds the application router: auth routes, health probes, and
// request logging around everything.
func NewRouter(auth *identityhandler.AuthHandler, health *healthhandler.Checker, logger zerolog.Logger) http.Handler {
	router := httprouter.New()
	auth.Register(router)
	if health != nil {
		health.Register(router)
	}
	return middleware.RequestLog(logger, middleware.ClientIP(router))
}

// Server wraps http.Server with sane timeouts and graceful shutdown.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// New returns a Server listening on addr once Start is called.
func New(addr string, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called. Returns nil on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
