package api

import (
	"github.com/burenotti/hacktrack/internal/adapter/telemetry"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	hackathonservice "github.com/burenotti/hacktrack/internal/app/hackathon"
	liveservice "github.com/burenotti/hacktrack/internal/app/live"
	metricservice "github.com/burenotti/hacktrack/internal/app/metric"
	proposalservice "github.com/burenotti/hacktrack/internal/app/proposal"
	teamservice "github.com/burenotti/hacktrack/internal/app/team"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"log/slog"
	"net"
	"strconv"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func DBContext(db unitofwork.Beginner) Option {
	return func(s *Server) {
		s.db = db
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}

func AuthService(service *authapp.Service) Option {
	return func(s *Server) {
		s.authService = service
	}
}

func HackathonService(service *hackathonservice.Service) Option {
	return func(s *Server) {
		s.hackathonService = service
	}
}

func TeamService(service *teamservice.Service) Option {
	return func(s *Server) {
		s.teamService = service
	}
}

func MetricService(service *metricservice.Service) Option {
	return func(s *Server) {
		s.metricService = service
	}
}

func ProposalService(service *proposalservice.Service) Option {
	return func(s *Server) {
		s.proposalService = service
	}
}

func LiveService(service *liveservice.Service) Option {
	return func(s *Server) {
		s.liveService = service
	}
}

// Telemetry instruments every route and serves the registry at path.
func Telemetry(m *telemetry.Manager, path string) Option {
	return func(s *Server) {
		s.telemetry = m
		if path != "" {
			s.metricsPath = path
		}
	}
}

func SessionCookie(name string, secure bool) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
		s.secureCookie = secure
	}
}
