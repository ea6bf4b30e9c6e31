package feed

import (
	"context"
	"log/slog"
	"sync"

	"Sparkle/internal/core/posts"
	"Sparkle/internal/realtime"
)

// ChangeNotifier delivers post collection changes
type ChangeNotifier interface {
	Subscribe(fn realtime.Subscriber) (unsubscribe func())
}

// ListOption configures a List
type ListOption func(*List)

// WithObserver registers fn to receive every view change. fn may be called
// from several goroutines and must not block.
func WithObserver(fn func(View)) ListOption {
	return func(l *List) {
		l.observer = fn
	}
}

// List is the feed of all posts, newest first. Once activated it re-fetches
// the whole collection on every change notification. Overlapping fetches are
// neither cancelled nor coalesced; whichever completes last sets the view.
type List struct {
	posts       posts.Service
	notifier    ChangeNotifier
	logger      *slog.Logger
	observer    func(View)
	unsubscribe func()
	view        View
	inFlight    int
	mu          sync.Mutex
}

// NewList creates an inactive feed list
func NewList(postService posts.Service, notifier ChangeNotifier, logger *slog.Logger, opts ...ListOption) *List {
	if logger == nil {
		logger = slog.Default()
	}
	l := &List{
		posts:    postService,
		notifier: notifier,
		logger:   logger,
		view:     View{Empty: MsgFeedEmpty},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Activate fetches the feed and starts listening for changes.
// Calling Activate on an active list only re-fetches.
func (l *List) Activate(ctx context.Context) View {
	l.mu.Lock()
	if l.unsubscribe == nil && l.notifier != nil {
		// Re-fetches outlive the request that triggered activation; only
		// Deactivate stops new ones from starting.
		bg := context.WithoutCancel(ctx)
		l.unsubscribe = l.notifier.Subscribe(func(ev realtime.Event) {
			l.logger.Debug("feed change received, refetching", "type", ev.Type, "id", ev.RecordID)
			go l.Refresh(bg)
		})
	}
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// Deactivate releases the change listener. Fetches already in flight still complete.
func (l *List) Deactivate() {
	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Active reports whether the list is listening for changes
func (l *List) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unsubscribe != nil
}

// View returns the current view state
func (l *List) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Refresh fetches all posts and applies the result to the view.
// On failure the list is emptied and the error message is set.
func (l *List) Refresh(ctx context.Context) View {
	l.mu.Lock()
	l.inFlight++
	l.view.Loading = true
	loading := l.snapshot()
	l.mu.Unlock()
	l.notify(loading)

	fetched, err := l.posts.ListPosts(ctx)

	l.mu.Lock()
	l.inFlight--
	if err != nil {
		l.logger.Error("failed to load feed", "error", err)
		l.view.Posts = nil
		l.view.Err = MsgFeedLoadFailed
	} else {
		l.view.Posts = fetched
		l.view.Err = ""
	}
	l.view.Loading = l.inFlight > 0
	done := l.snapshot()
	l.mu.Unlock()
	l.notify(done)

	return done
}

func (l *List) snapshot() View {
	v := l.view
	v.Posts = append([]*posts.Post(nil), l.view.Posts...)
	return v
}

func (l *List) notify(v View) {
	if l.observer != nil {
		l.observer(v)
	}
}
