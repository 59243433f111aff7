package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/telemetry"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	hackathonservice "github.com/burenotti/hacktrack/internal/app/hackathon"
	liveservice "github.com/burenotti/hacktrack/internal/app/live"
	metricservice "github.com/burenotti/hacktrack/internal/app/metric"
	proposalservice "github.com/burenotti/hacktrack/internal/app/proposal"
	teamservice "github.com/burenotti/hacktrack/internal/app/team"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultCookieName  = "hacktrack_session"
	DefaultMetricsPath = "/internal/metrics"
)

type Server struct {
	handler          *echo.Echo
	logger           *slog.Logger
	addr             string
	db               unitofwork.Beginner
	msgBus           unitofwork.MessageBus
	authService      *authapp.Service
	hackathonService *hackathonservice.Service
	teamService      *teamservice.Service
	metricService    *metricservice.Service
	proposalService  *proposalservice.Service
	liveService      *liveservice.Service
	telemetry        *telemetry.Manager
	metricsPath      string
	cookieName       string
	secureCookie     bool
	validator        *validator.Validate
}

func NewServer(opt ...Option) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Server.WriteTimeout = 10 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.IdleTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.MaxHeaderBytes = 8192

	v := validator.New(validator.WithRequiredStructEnabled())

	s := &Server{
		handler:     e,
		validator:   v,
		logger:      slog.Default(),
		cookieName:  DefaultCookieName,
		metricsPath: DefaultMetricsPath,
	}

	for _, opt := range opt {
		opt(s)
	}

	e.Use(middleware.Recover())
	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelInfo,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	if s.telemetry != nil {
		e.Use(s.telemetry.Middleware())
	}
	s.Mount()
	return s
}

func (s *Server) Mount() {
	s.MountAuth()
	s.MountHackathons()
	s.MountTeams()
	s.MountMetrics()
	s.MountProposals()
	s.MountLive()

	if s.telemetry != nil {
		s.handler.GET(s.metricsPath, echo.WrapHandler(s.telemetry.Handler()))
	}
}

func (s *Server) Start() error {
	if err := s.handler.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.handler.Shutdown(ctx)
}

// ServeHTTP lets the server be driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) sessionRequired() echo.MiddlewareFunc {
	return SessionRequired(s.authService.Authorizer, s.cookieName)
}

func (s *Server) bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return fmt.Errorf("bad request")
	}
	if err := s.validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("bad request")
		}
		return fmt.Errorf("%s: %s", errs[0].Field(), errs[0].Error())

	}
	return nil
}

func (s *Server) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.authService.Authorizer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
