// Package telemetry exposes prometheus collectors for the HTTP api and the
// domain events flowing through the message bus.
package telemetry

import (
	"context"
	"errors"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

const (
	namespace = "hacktrack"
)

type Manager struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	domainEvents        *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
}

type Option func(*Manager)

// WithRegistry replaces the private registry. Tests pass a fresh one.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		m.registry = r
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	m.domainEvents = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_total",
			Help:      "Total number of published domain events by type",
		},
		[]string{"type"},
	)

	m.cacheLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "cache_lookups_total",
			Help:      "Live snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records every request under its route pattern so that path
// parameters do not blow up label cardinality.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// CountEvent is a message bus handler counting published events.
func (m *Manager) CountEvent(event domain.Event) error {
	m.domainEvents.WithLabelValues(event.Type()).Inc()
	return nil
}

// Cache matches the live snapshot cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type observedCache struct {
	Cache
	lookups *prometheus.CounterVec
}

func (c observedCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.lookups.WithLabelValues("miss").Inc()
	} else {
		c.lookups.WithLabelValues("hit").Inc()
	}
	return v, err
}

// ObserveCache counts hits and misses of c. Any Get error is a miss.
func (m *Manager) ObserveCache(c Cache) Cache {
	return observedCache{Cache: c, lookups: m.cacheLookups}
}
