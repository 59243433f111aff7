package config

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/ilyakaznacheev/cleanenv"
	"time"
	_ "time/tzdata"
)

var (
	ErrConfigNotLoaded = errors.New("config not loaded")
)

type Environment string

const (
	Production  Environment = "prod"
	Development Environment = "dev"
)

func (e *Environment) SetValue(s string) error {
	*e = Environment(s)
	if *e != Production && *e != Development {
		return configNotLoadedErr(`only "prod" and "dev" environments are allowed`)
	}
	return nil
}

// ScoringPolicy names a leaderboard.Policy.
type ScoringPolicy string

func (p *ScoringPolicy) SetValue(s string) error {
	if _, err := leaderboard.ParsePolicy(s); err != nil {
		return configNotLoadedErr("scoring policy: %w", err)
	}
	*p = ScoringPolicy(s)
	return nil
}

func (p ScoringPolicy) Policy() leaderboard.Policy {
	policy, err := leaderboard.ParsePolicy(string(p))
	if err != nil {
		return leaderboard.Uniform{}
	}
	return policy
}

type Config struct {
	App struct {
		Env Environment `yaml:"env" env:"ENV" env-required:"true"`
	} `yaml:"app" env-prefix:"APP_"`

	Server struct {
		Host string `yaml:"host" env:"HOST" env-default:"localhost"`
		Port int    `yaml:"port" env:"PORT" env-default:"8080"`
	} `yaml:"server" env-prefix:"SERVER_"`

	DB struct {
		DSN     string `yaml:"dsn" env:"DSN" env-required:"true"`
		Migrate bool   `yaml:"migrate" env:"MIGRATE" env-default:"true"`
	} `yaml:"db" env-prefix:"DB_"`

	JWT struct {
		Secret     string        `yaml:"secret" env:"SECRET" env-required:"true"`
		SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"168h"`
	} `yaml:"jwt" env-prefix:"JWT_"`

	Auth struct {
		OrganizerSecret string `yaml:"organizer_secret" env:"ORGANIZER_SECRET"`
		CookieName      string `yaml:"cookie_name" env:"COOKIE_NAME" env-default:"hacktrack_session"`
		SecureCookie    bool   `yaml:"secure_cookie" env:"SECURE_COOKIE" env-default:"false"`
	} `yaml:"auth" env-prefix:"AUTH_"`

	Scoring struct {
		Policy ScoringPolicy `yaml:"policy" env:"POLICY" env-default:"uniform"`
	} `yaml:"scoring" env-prefix:"SCORING_"`

	Timeline struct {
		Location string `yaml:"location" env:"LOCATION" env-default:"UTC"`
	} `yaml:"timeline" env-prefix:"TIMELINE_"`

	Cache struct {
		RedisAddrs []string      `yaml:"redis_addrs" env:"REDIS_ADDRS" env-separator:","`
		TTL        time.Duration `yaml:"ttl" env:"TTL" env-default:"3s"`
	} `yaml:"cache" env-prefix:"CACHE_"`

	Telemetry struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"true"`
		Path    string `yaml:"path" env:"PATH" env-default:"/internal/metrics"`
	} `yaml:"telemetry" env-prefix:"TELEMETRY_"`
}

// Location is the time zone timeline buckets are aligned to.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timeline.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validate repeats the SetValue checks for values that came from the file.
func (c *Config) validate() error {
	if err := c.App.Env.SetValue(string(c.App.Env)); err != nil {
		return err
	}
	if err := c.Scoring.Policy.SetValue(string(c.Scoring.Policy)); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timeline.Location); err != nil {
		return configNotLoadedErr("timeline location: %w", err)
	}
	if c.JWT.SessionTTL <= 0 {
		return configNotLoadedErr("jwt session ttl must be positive")
	}
	return nil
}

func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadConfig(filePath, cfg); err != nil {
		return nil, configNotLoadedErr("config not loaded: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func configNotLoadedErr(format string, args ...any) error {
	return errors.Join(fmt.Errorf(format, args...), ErrConfigNotLoaded)
}
