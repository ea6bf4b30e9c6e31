package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/session"
	"Sparkle/internal/supabase"
)

// AuthClient is the part of the Supabase auth API the pages use
type AuthClient interface {
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*supabase.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password, redirectTo string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Page is the data every page template receives
type Page struct {
	Data    interface{}
	Viewer  *session.Viewer
	Meta    PageMeta
	Flashes []string
}

// Deps are the collaborators the web handlers need
type Deps struct {
	Templates *Templates
	Posts     posts.Service
	Likes     likes.Service
	Submitter *posts.Submitter
	Cards     *feed.CardLoader
	Liked     *feed.LikedList
	Changes   feed.ChangeNotifier
	Sessions  *session.Store
	Auth      AuthClient
	Users     UserProvisioner
	Logger    *slog.Logger
	PublicURL string
	// MaxImageBytes is shown on the new post form
	MaxImageBytes int64
}

// Handlers provides the HTTP handlers for the web interface.
type Handlers struct {
	Deps
}

// NewHandlers creates a new Handlers instance with the provided dependencies.
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handlers{Deps: deps}
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request, meta PageMeta, data interface{}) Page {
	return Page{
		Meta:    meta,
		Viewer:  session.FromContext(r.Context()),
		Flashes: h.Sessions.Flashes(w, r),
		Data:    data,
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	if err := h.Templates.Render(w, status, name, p); err != nil {
		h.Logger.Error("failed to render page", "template", name, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handlers) pageURL(r *http.Request) string {
	return h.PublicURL + r.URL.Path
}

// PostURL returns the canonical public URL of a post
func (h *Handlers) PostURL(postID string) string {
	return h.PublicURL + "/post/" + postID
}

// FeedData is the data the feed and liked pages render
type FeedData struct {
	View  feed.View
	Cards []feed.Card
}

// FeedHandler handles GET / and renders every post, newest first.
// The page then keeps itself current through /feed/stream.
func (h *Handlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	list := feed.NewList(h.Posts, nil, h.Logger)
	view := list.Refresh(r.Context())

	data := h.feedData(r.Context(), view)
	h.render(w, r, http.StatusOK, "feed.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
}

// LikedHandler handles GET /liked
func (h *Handlers) LikedHandler(w http.ResponseWriter, r *http.Request) {
	view := h.Liked.Load(r.Context(), session.ViewerID(r.Context()))

	data := h.feedData(r.Context(), view)
	h.render(w, r, http.StatusOK, "liked.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
}

func (h *Handlers) feedData(ctx context.Context, view feed.View) FeedData {
	data := FeedData{View: view}
	if !view.Loading && view.Err == "" && len(view.Posts) > 0 {
		data.Cards = h.Cards.Cards(ctx, session.ViewerID(ctx), view.Posts)
	}
	return data
}

// PostData is the data the post detail page renders
type PostData struct {
	Card     *feed.Card
	NotFound bool
}

// PostHandler handles GET /post/{id}. Unknown IDs render "Post not found"
// with a 404; the page metadata always describes the specific post.
func (h *Handlers) PostHandler(w http.ResponseWriter, r *http.Request) {
	postID := urlParam(r, "id")

	post, err := h.Posts.GetPost(r.Context(), postID)
	if err != nil {
		if !errors.Is(err, posts.ErrNotFound) {
			h.Logger.Error("failed to load post", "post_id", postID, "error", err)
		}
		h.render(w, r, http.StatusNotFound, "post.html",
			h.page(w, r, DefaultMeta(h.pageURL(r)), PostData{NotFound: true}))
		return
	}

	card := h.Cards.Load(r.Context(), session.ViewerID(r.Context()), post)
	meta := PostMeta(post, h.PostURL(post.ID))
	h.render(w, r, http.StatusOK, "post.html", h.page(w, r, meta, PostData{Card: &card}))
}

// ErrorPanelHandler renders the fallback panel used when a request panics
func (h *Handlers) ErrorPanelHandler(w http.ResponseWriter, r *http.Request) {
	p := Page{Meta: DefaultMeta(h.pageURL(r))}
	if err := h.Templates.Render(w, http.StatusInternalServerError, "error.html", p); err != nil {
		h.Logger.Error("failed to render error panel", "error", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
	}
}
