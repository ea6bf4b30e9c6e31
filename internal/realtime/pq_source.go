package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostsChannel is the NOTIFY channel the posts trigger publishes on
const PostsChannel = "posts_changes"

const listenerPingInterval = 90 * time.Second

// notifyPayload is the JSON body sent by the posts trigger
type notifyPayload struct {
	Op    string `json:"op"`
	Table string `json:"table"`
	ID    string `json:"id"`
}

// PQSource listens on a Postgres NOTIFY channel
type PQSource struct {
	dsn     string
	channel string
	logger  *slog.Logger
}

// NewPQSource creates a listener source for channel on the database at dsn
func NewPQSource(dsn, channel string, logger *slog.Logger) *PQSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PQSource{dsn: dsn, channel: channel, logger: logger}
}

func (s *PQSource) Run(ctx context.Context, emit func(Event)) error {
	listener := pq.NewListener(s.dsn, 5*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Warn("postgres listener event", "event", ev, "error", err)
		}
	})
	defer func() { _ = listener.Close() }()

	if err := listener.Listen(s.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.channel, err)
	}
	s.logger.Info("listening for database notifications", "channel", s.channel)

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			// nil after a reconnect; notifications may have been missed, so emit a refresh.
			if n == nil {
				emit(Event{Type: EventUpdate})
				continue
			}
			emit(parseNotification(n.Extra))
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				s.logger.Warn("postgres listener ping failed", "error", err)
			}
		}
	}
}

func parseNotification(extra string) Event {
	var p notifyPayload
	if err := json.Unmarshal([]byte(extra), &p); err != nil {
		return Event{Type: EventUpdate}
	}
	return Event{
		Type:     EventType(strings.ToUpper(p.Op)),
		Table:    p.Table,
		RecordID: p.ID,
	}
}
