package messagebus

import (
	"errors"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type testEvent struct {
	name string
}

func (e testEvent) Type() string {
	return e.name
}

func (e testEvent) PublishedAt() time.Time {
	return time.Time{}
}

func TestMessageBus_PublishEvents(t *testing.T) {
	bus := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var logged, changed atomic.Int32
	bus.Register(func(event domain.Event) error {
		logged.Add(1)
		return nil
	}, "metric.logged")
	bus.Register(func(event domain.Event) error {
		changed.Add(1)
		return errors.New("handler failure is only logged")
	}, "metric.logged", "metric.definitions_changed")

	err := bus.PublishEvents(
		testEvent{"metric.logged"},
		testEvent{"metric.definitions_changed"},
		testEvent{"unhandled"},
	)
	bus.Close()

	assert.NoError(t, err)
	assert.Equal(t, int32(1), logged.Load())
	assert.Equal(t, int32(2), changed.Load())
}
