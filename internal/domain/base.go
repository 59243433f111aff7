package domain

import (
	"sync"
	"time"
)

type Event interface {
	Type() string
	PublishedAt() time.Time
}

type NoCopy struct {
	sync.Mutex
}

// Aggregate buffers domain events until the unit of work publishes them.
type Aggregate struct {
	NoCopy
	events []Event
}

func (a *Aggregate) PopEvents() []Event {
	a.Lock()
	defer a.Unlock()
	events := a.events
	a.events = make([]Event, 0)
	return events
}

func (a *Aggregate) PushEvent(e Event) {
	a.Lock()
	a.events = append(a.events, e)
	a.Unlock()
}

// EventSource is implemented by every aggregate that records events.
type EventSource interface {
	PopEvents() []Event
}
