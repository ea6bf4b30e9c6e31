// Package realtime fans table change notifications out to in-process subscribers.
// A Source produces events (Supabase Realtime or Postgres LISTEN/NOTIFY) and the
// Hub delivers each one to every current subscriber.
package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// EventType is the kind of row change
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event describes one change to a table row
type Event struct {
	Type     EventType `json:"type"`
	Table    string    `json:"table"`
	RecordID string    `json:"recordId,omitempty"`
}

// Source produces change events until ctx is cancelled
type Source interface {
	Run(ctx context.Context, emit func(Event)) error
}

// Subscriber is called for every published event. It must not block for long.
type Subscriber func(Event)

// Hub delivers published events to all subscribers
type Hub struct {
	logger *slog.Logger
	subs   map[uint64]Subscriber
	nextID uint64
	mu     sync.RWMutex
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[uint64]Subscriber),
	}
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (h *Hub) Subscribe(fn Subscriber) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber registered at the time of the call
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	h.logger.Debug("realtime event", "type", ev.Type, "table", ev.Table, "id", ev.RecordID, "subscribers", len(subs))
	for _, fn := range subs {
		fn(ev)
	}
}

// Run pumps events from src into the hub until ctx is cancelled
func (h *Hub) Run(ctx context.Context, src Source) error {
	return src.Run(ctx, h.Publish)
}
