package telemetry

import (
	"context"
	"errors"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestManager_Middleware(t *testing.T) {
	m := NewManager()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/teams/invite/:code", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	for _, path := range []string{"/teams/invite/ABCD", "/teams/invite/WXYZ", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/teams/invite/:code", "GET", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/boom", "GET", "418")))
}

func TestManager_Handler(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.CountEvent(metric.LoggedEvent{}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `hacktrack_bus_events_total{type="metric.logged"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}

type stubCache map[string][]byte

func (s stubCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (s stubCache) Set(_ context.Context, key string, value []byte) error {
	s[key] = value
	return nil
}

func (s stubCache) Delete(_ context.Context, key string) error {
	delete(s, key)
	return nil
}

func TestManager_ObserveCache(t *testing.T) {
	m := NewManager()
	c := m.ObserveCache(stubCache{})
	ctx := context.Background()

	_, err := c.Get(ctx, "live:h1")
	assert.Error(t, err)
	require.NoError(t, c.Set(ctx, "live:h1", []byte("{}")))
	_, err = c.Get(ctx, "live:h1")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "live:h1")
	assert.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}
