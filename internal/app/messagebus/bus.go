package messagebus

import (
	"github.com/burenotti/hacktrack/internal/domain"
	"log/slog"
	"sync"
)

type EventHandler func(event domain.Event) error

// MessageBus dispatches domain events to handlers in background goroutines.
// Handlers must be registered before the first event is published.
type MessageBus struct {
	logger   *slog.Logger
	handlers map[string][]EventHandler
	wg       sync.WaitGroup
}

func New(logger *slog.Logger) *MessageBus {
	return &MessageBus{
		logger:   logger,
		handlers: make(map[string][]EventHandler),
		wg:       sync.WaitGroup{},
	}
}

func (b *MessageBus) Register(handler EventHandler, eventTypes ...string) {
	for _, eventType := range eventTypes {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
}

func (b *MessageBus) PublishEvents(events ...domain.Event) error {
	for _, event := range events {
		b.logger.Debug("publishing event", "type", event.Type(), "at", event.PublishedAt())
		for _, handler := range b.handlers[event.Type()] {
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if err := handler(event); err != nil {
					b.logger.Error("failed to handle event", "type", event.Type(), "err", err)
				}
			}()
		}
	}
	return nil
}

// Close waits for running handlers to finish.
func (b *MessageBus) Close() {
	b.wg.Wait()
}
