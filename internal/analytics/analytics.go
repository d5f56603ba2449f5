package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the gating layer. These are stable identifiers
// consumed by downstream dashboards; add new ones, never rename.
const (
	EventEntitlementCheckFailed = "entitlement_check_failed"
)

// Event is a single product-analytics occurrence. Transport-agnostic so sinks
// can fan out to Kafka, memory, or nothing at all.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	UserID     *string        `json:"user_id"` // nil when the caller is anonymous
	Timestamp  time.Time      `json:"ts"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NewEvent builds an event with a fresh ID and the current time.
func NewEvent(name string, userID *string, properties map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		UserID:     userID,
		Timestamp:  time.Now().UTC(),
		Properties: properties,
	}
}

// Sink accepts analytics events. Implementations must tolerate concurrent
// publishes; delivery guarantees are sink-specific.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// MemorySink records events in process. Used in tests and as a stand-in when
// no broker is configured in development.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// NopSink drops every event. Wired when analytics is not configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }
