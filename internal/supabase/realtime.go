package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ChangeType is the kind of row change delivered by Realtime.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is one postgres_changes notification.
type ChangeEvent struct {
	Schema    string         `json:"schema"`
	Table     string         `json:"table"`
	Type      ChangeType     `json:"type"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// RecordID returns the id of the changed row, looking at the old record for deletes.
func (e *ChangeEvent) RecordID() string {
	for _, rec := range []map[string]any{e.Record, e.OldRecord} {
		if id, ok := rec["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// ChangeHandler receives change events. It is called from the read loop, so
// it must not block for long.
type ChangeHandler func(ChangeEvent)

// phoenixMessage is the Phoenix channel wire format used by Supabase Realtime.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

const (
	realtimeReadTimeout    = 60 * time.Second
	realtimeHeartbeat      = 30 * time.Second
	realtimeReconnectDelay = 5 * time.Second
)

// Realtime subscribes to every change on one table.
type Realtime struct {
	wsURL          string
	schema         string
	table          string
	accessToken    string
	logger         *slog.Logger
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	ref            atomic.Int64
}

// Realtime returns a subscription to all changes on schema.table.
func (c *Client) Realtime(schema, table string, logger *slog.Logger) *Realtime {
	if logger == nil {
		logger = slog.Default()
	}
	wsBase := strings.Replace(c.baseURL, "http", "ws", 1)
	q := url.Values{}
	q.Set("apikey", c.anonKey)
	q.Set("vsn", "1.0.0")

	return &Realtime{
		wsURL:          wsBase + "/realtime/v1/websocket?" + q.Encode(),
		schema:         schema,
		table:          table,
		accessToken:    c.token,
		logger:         logger,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: realtimeReconnectDelay,
	}
}

// Topic returns the channel topic, e.g. "realtime:public:posts".
func (r *Realtime) Topic() string {
	return "realtime:" + r.schema + ":" + r.table
}

// Run delivers change events to handler until ctx is cancelled,
// reconnecting after connection failures.
func (r *Realtime) Run(ctx context.Context, handler ChangeHandler) error {
	r.logger.Info("starting realtime subscription", "topic", r.Topic())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("realtime subscription shutting down", "topic", r.Topic())
			return ctx.Err()
		default:
		}

		if err := r.connect(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("realtime connection error, retrying",
				"topic", r.Topic(), "error", err, "delay", r.reconnectDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.reconnectDelay):
			}
		}
	}
}

func (r *Realtime) nextRef() string {
	return strconv.FormatInt(r.ref.Add(1), 10)
}

// connect joins the channel and processes messages until the connection drops.
func (r *Realtime) connect(ctx context.Context, handler ChangeHandler) error {
	conn, _, err := r.dialer.DialContext(ctx, r.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to realtime: %w", err)
	}

	var writeMu sync.Mutex
	send := func(msg phoenixMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(msg)
	}

	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }
	defer func() {
		closeDone()
		if closeErr := conn.Close(); closeErr != nil {
			r.logger.Debug("failed to close realtime connection", "error", closeErr)
		}
	}()

	// Closing the socket unblocks ReadMessage when ctx is cancelled.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := send(r.joinMessage()); err != nil {
		return fmt.Errorf("failed to join %s: %w", r.Topic(), err)
	}
	r.logger.Info("connected to realtime", "topic", r.Topic())

	if err := conn.SetReadDeadline(time.Now().Add(realtimeReadTimeout)); err != nil {
		r.logger.Debug("failed to set read deadline", "error", err)
	}

	go func() {
		ticker := time.NewTicker(realtimeHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hb := phoenixMessage{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: r.nextRef()}
				if err := send(hb); err != nil {
					r.logger.Warn("failed to send realtime heartbeat", "error", err)
					closeDone()
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return fmt.Errorf("connection closed by heartbeat failure")
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(realtimeReadTimeout)); err != nil {
			r.logger.Debug("failed to extend read deadline", "error", err)
		}

		var msg phoenixMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Warn("failed to parse realtime message", "error", err)
			continue
		}
		if msg.Topic != r.Topic() {
			continue
		}

		switch msg.Event {
		case "phx_reply":
			r.logger.Debug("realtime reply", "topic", msg.Topic, "ref", msg.Ref)
		case "phx_error", "phx_close":
			return fmt.Errorf("channel %s closed by server (%s)", msg.Topic, msg.Event)
		default:
			if ev, ok := parseChange(msg); ok {
				handler(ev)
			}
		}
	}
}

func (r *Realtime) joinMessage() phoenixMessage {
	payload := map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]string{
				{"event": "*", "schema": r.schema, "table": r.table},
			},
		},
	}
	if r.accessToken != "" {
		payload["access_token"] = r.accessToken
	}
	raw, _ := json.Marshal(payload)
	return phoenixMessage{Topic: r.Topic(), Event: "phx_join", Payload: raw, Ref: r.nextRef()}
}

// parseChange accepts both the postgres_changes envelope ({"data": {...}}) and
// the legacy per-type events (event "INSERT" with the change as payload).
func parseChange(msg phoenixMessage) (ChangeEvent, bool) {
	var ev ChangeEvent
	switch msg.Event {
	case "postgres_changes":
		var envelope struct {
			Data ChangeEvent `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			return ev, false
		}
		ev = envelope.Data
	case string(ChangeInsert), string(ChangeUpdate), string(ChangeDelete):
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return ev, false
		}
		if ev.Type == "" {
			ev.Type = ChangeType(msg.Event)
		}
	default:
		return ev, false
	}
	return ev, ev.Type != ""
}
