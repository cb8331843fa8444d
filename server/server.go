package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/internal/util"
	apiv1 "github.com/hrygo/chorus/server/router/api/v1"
	"github.com/hrygo/chorus/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   store,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())
	// Health checks and metric scrapes are exempt from rate limiting so a
	// busy instance never reports itself unhealthy.
	echoServer.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return util.HasPrefixes(c.Request().URL.Path, "/healthz", "/metrics")
		},
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(profile.RequestRateLimit)),
	}))

	s.echoServer = echoServer
	s.apiService = apiv1.NewAPIV1Service(profile, store)
	s.apiService.RegisterRoutes(echoServer)

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)

	if s.Profile.UNIXSock != "" {
		// Remove stale socket file left by a previous run.
		if err := os.Remove(s.Profile.UNIXSock); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove stale socket %s", s.Profile.UNIXSock)
		}
		listener, err := net.Listen("unix", s.Profile.UNIXSock)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on unix socket %s", s.Profile.UNIXSock)
		}
		s.echoServer.Listener = listener
		go func() {
			if err := s.echoServer.Start(""); err != nil && err != http.ErrServerClosed {
				slog.Error("server stopped", "error", err)
			}
		}()
		return nil
	}

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("server shutdown")
}
