package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventType names what happened in the session
type EventType string

const (
	EventViewUpdated       EventType = "view_updated"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventExpansionFailed   EventType = "expansion_failed"
	EventSessionReset      EventType = "session_reset"
	EventSnapshotSaved     EventType = "snapshot_saved"
	EventSnapshotRestored  EventType = "snapshot_restored"
	EventSnapshotDeleted   EventType = "snapshot_deleted"
)

var eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cpgview_events_dropped_total",
	Help: "Events not delivered because a subscriber's channel was full.",
}, []string{"type"})

// Event is published on the bus and streamed to UI clients
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EventName names the event on the SSE stream
func (e Event) EventName() string {
	return string(e.Type)
}

// EventBus fans events out to subscriber channels. Publish never blocks: a
// subscriber whose channel is full misses the event.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]struct{}
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan<- Event]struct{}),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[ch] = struct{}{}
}

// Unsubscribe stops delivering events to ch
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			eventsDropped.WithLabelValues(string(event.Type)).Inc()
		}
	}
}
