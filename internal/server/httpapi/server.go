// Package httpapi provides the HTTP transport: the echo server, the
// per-request authentication gate, route registration and response envelopes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/auth"
	"github.com/opensource-kemini/kemini-backend/internal/server/services"
)

// Server hosts the REST API.
type Server struct {
	echo         *echo.Echo
	address      string
	logger       logging.Logger
	users        *services.UserService
	environments *services.EnvironmentService
}

func NewServer(address string, logger logging.Logger, verifier auth.TokenVerifier,
	us *services.UserService, es *services.EnvironmentService) *Server {

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		address:      address,
		logger:       logger.With("module", "http_server"),
		users:        us,
		environments: es,
	}

	e.Use(middleware.Recover())
	e.Use(RequestLogger(s.logger))
	e.Use(AuthenticationGate(verifier, s.logger))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")

	// sign-up is the only unauthenticated business route; tokens themselves
	// are issued by the identity provider, not here
	v1.POST("/auth/signup", s.handleSignUp)

	authed := v1.Group("", RequireAuth())

	authed.GET("/users/me", s.handleGetMe)
	authed.PUT("/users/me", s.handleUpdateMe)
	authed.DELETE("/users/me", s.handleDeleteMe)

	authed.POST("/environments", s.handleCreateEnvironment)
	authed.GET("/environments", s.handleListEnvironments)
	authed.GET("/environments/:envId", s.handleGetEnvironment)
	authed.PUT("/environments/:envId", s.handleRenameEnvironment)
	authed.DELETE("/environments/:envId", s.handleDeleteEnvironment)
	authed.POST("/environments/:envId/request-upload", s.handleRequestUpload)
}

// Run starts the server and shuts it down gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
