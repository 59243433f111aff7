package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"github.com/burenotti/hacktrack/internal/adapter/api"
	"github.com/burenotti/hacktrack/internal/adapter/cache"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/telemetry"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	hackathonservice "github.com/burenotti/hacktrack/internal/app/hackathon"
	liveservice "github.com/burenotti/hacktrack/internal/app/live"
	"github.com/burenotti/hacktrack/internal/app/messagebus"
	metricservice "github.com/burenotti/hacktrack/internal/app/metric"
	proposalservice "github.com/burenotti/hacktrack/internal/app/proposal"
	teamservice "github.com/burenotti/hacktrack/internal/app/team"
	"github.com/burenotti/hacktrack/internal/config"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leporo/sqlf"
	"golang.org/x/crypto/bcrypt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	sqlf.SetDialect(sqlf.PostgreSQL)

	db, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := storage.Migrate(db, logger); err != nil {
			panic("failed to migrate database: " + err.Error())
		}
	}

	var tm *telemetry.Manager
	if cfg.Telemetry.Enabled {
		tm = telemetry.NewManager()
	}

	snapshots := initCache(cfg, logger)
	if tm != nil {
		snapshots = tm.ObserveCache(snapshots)
	}

	policy := cfg.Scoring.Policy.Policy()
	live := liveservice.New(policy, snapshots, logger)

	bus := messagebus.New(logger)
	bus.Register(live.InvalidateOn, liveservice.InvalidatingEvents...)
	if tm != nil {
		bus.Register(tm.CountEvent,
			user.EventCreated,
			user.EventUpdated,
			hackathon.EventCreated,
			hackathon.EventActivated,
			hackathon.EventEnded,
			team.EventMemberJoined,
			metric.EventLogged,
			metric.EventDefinitionsChanged,
			proposal.EventResolved,
		)
	}

	authorizer := &authapp.Authorizer{
		Cost:       bcrypt.DefaultCost,
		Secret:     cfg.JWT.Secret,
		SessionTTL: cfg.JWT.SessionTTL,
	}

	opts := []api.Option{
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.DBContext(&storage.DB{DB: db}),
		api.MessageBus(bus),
		api.AuthService(authapp.NewService(authorizer, cfg.Auth.OrganizerSecret, logger)),
		api.HackathonService(hackathonservice.New(logger)),
		api.TeamService(teamservice.New(policy, logger)),
		api.MetricService(metricservice.New(cfg.Location(), logger)),
		api.ProposalService(proposalservice.New(logger)),
		api.LiveService(live),
		api.SessionCookie(cfg.Auth.CookieName, cfg.Auth.SecureCookie),
	}
	if tm != nil {
		opts = append(opts, api.Telemetry(tm, cfg.Telemetry.Path))
	}
	server := api.NewServer(opts...)

	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		errCh <- server.Start()
	}()

	logger.Info("server started",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"scoring_policy", policy.Name(),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}

	bus.Close()
	logger.Info("server shutdown")
}

// initCache connects to redis when addresses are configured and falls back
// to no caching otherwise.
func initCache(cfg *config.Config, logger *slog.Logger) liveservice.Cache {
	if len(cfg.Cache.RedisAddrs) == 0 {
		return cache.Noop{}
	}

	client, err := cache.NewRedisClient(cfg.Cache.RedisAddrs)
	if err != nil {
		logger.Warn("redis unavailable, live snapshots are not cached", "error", err)
		return cache.Noop{}
	}
	return cache.NewRedisCache(client, cfg.Cache.TTL)
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
