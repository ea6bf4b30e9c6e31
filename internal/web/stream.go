package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Sparkle/internal/core/feed"
	"Sparkle/internal/session"
)

const streamKeepAlive = 25 * time.Second

// StreamHandler handles GET /feed/stream. Each connection is an activated
// feed list: every post change triggers a re-fetch and the rendered feed is
// pushed as a server-sent "feed" event. The listener is released when the
// client disconnects.
func (h *Handlers) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	viewerID := session.ViewerID(ctx)

	// Only the latest view matters; older pending views are replaced.
	views := make(chan feed.View, 1)
	list := feed.NewList(h.Posts, h.Changes, h.Logger, feed.WithObserver(func(v feed.View) {
		if v.Loading {
			return
		}
		select {
		case <-views:
		default:
		}
		select {
		case views <- v:
		default:
		}
	}))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The activation fetch is pushed too, so posts created between the page
	// render and this subscription still reach the client.
	list.Activate(ctx)
	defer list.Deactivate()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case v := <-views:
			var buf bytes.Buffer
			if err := h.Templates.RenderPartial(&buf, "feed_body", h.feedData(ctx, v)); err != nil {
				h.Logger.Error("failed to render feed update", "viewer", viewerID, "error", err)
				continue
			}
			if err := writeEvent(w, "feed", buf.String()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one server-sent event; every line of data gets its own
// data: prefix.
func writeEvent(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := fmt.Fprint(w, b.String())
	return err
}
