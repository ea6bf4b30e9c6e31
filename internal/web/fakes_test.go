package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"Sparkle/internal/core/assets"
	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
	"Sparkle/internal/realtime"
	"Sparkle/internal/session"
	"Sparkle/internal/supabase"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memPosts struct {
	mu      sync.Mutex
	rows    map[string]*posts.Post
	deleted []string
}

func newMemPosts() *memPosts {
	return &memPosts{rows: make(map[string]*posts.Post)}
}

func (m *memPosts) add(p *posts.Post) *posts.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.rows[p.ID] = p
	return p
}

func (m *memPosts) sorted(keep func(*posts.Post) bool) []*posts.Post {
	out := make([]*posts.Post, 0, len(m.rows))
	for _, p := range m.rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPosts) List(ctx context.Context) ([]*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*posts.Post) bool { return true }), nil
}

func (m *memPosts) ListByIDs(ctx context.Context, ids []string) ([]*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return m.sorted(func(p *posts.Post) bool { return want[p.ID] }), nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, posts.ErrNotFound
	}
	return p, nil
}

func (m *memPosts) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	return m.add(post), nil
}

func (m *memPosts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return posts.ErrNotFound
	}
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memPosts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memLikes struct {
	mu     sync.Mutex
	rows   map[[2]string]bool
	writes int
}

func newMemLikes() *memLikes {
	return &memLikes{rows: make(map[[2]string]bool)}
}

func (m *memLikes) Exists(ctx context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[[2]string{postID, userID}], nil
}

func (m *memLikes) Count(ctx context.Context, postID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.rows {
		if k[0] == postID {
			n++
		}
	}
	return n, nil
}

func (m *memLikes) Create(ctx context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.rows[[2]string{postID, userID}] = true
	return nil
}

func (m *memLikes) Delete(ctx context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	delete(m.rows, [2]string{postID, userID})
	return nil
}

func (m *memLikes) ListPostIDsByUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for k := range m.rows {
		if k[1] == userID {
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

func (m *memLikes) CountsForPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for k := range m.rows {
		counts[k[0]]++
	}
	return counts, nil
}

func (m *memLikes) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*users.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[string]*users.User)}
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetByIDs(ctx context.Context, ids []string) ([]*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*users.User
	for _, id := range ids {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Create(ctx context.Context, user *users.User) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[user.ID] = user
	return user, nil
}

// stubUploader accepts every upload and returns a fixed URL
type stubUploader struct {
	mu    sync.Mutex
	calls int
}

func (u *stubUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	return "https://cdn.example.com/" + filename, nil
}

type fakeAuth struct {
	signIn    *supabase.Session
	signInErr error
	signUp    *supabase.Session
	exchange  *supabase.Session
	gotCode   string
	gotVerify string
	signedOut bool
}

func (f *fakeAuth) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	return "https://auth.example.com/authorize?provider=" + provider + "&code_challenge=" + codeChallenge
}

func (f *fakeAuth) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*supabase.Session, error) {
	f.gotCode, f.gotVerify = authCode, codeVerifier
	return f.exchange, nil
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error) {
	return f.signIn, f.signInErr
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, redirectTo string) (*supabase.Session, error) {
	return f.signUp, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.signedOut = true
	return nil
}

type testEnv struct {
	handlers *Handlers
	router   http.Handler
	posts    *memPosts
	likes    *memLikes
	users    *memUsers
	uploader *stubUploader
	auth     *fakeAuth
	hub      *realtime.Hub
}

// newTestEnv wires the handlers over in-memory repositories. viewerID, when
// set, is injected as the signed-in user for every request.
func newTestEnv(viewerID string) (*testEnv, error) {
	tmpl, err := NewTemplates()
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(testSecret, false)
	if err != nil {
		return nil, err
	}

	env := &testEnv{
		posts:    newMemPosts(),
		likes:    newMemLikes(),
		users:    newMemUsers(),
		uploader: &stubUploader{},
		auth:     &fakeAuth{},
		hub:      realtime.NewHub(quietLogger()),
	}

	logger := quietLogger()
	postService := posts.NewService(env.posts, logger)
	likeService := likes.NewService(env.likes, logger)
	userService := users.NewUserService(env.users, logger)
	images := assets.NewService(env.uploader, assets.WithLogger(logger))

	h := NewHandlers(Deps{
		Templates: tmpl,
		Posts:     postService,
		Likes:     likeService,
		Submitter: posts.NewSubmitter(postService, images, logger),
		Liked:     feed.NewLikedList(postService, likeService, logger),
		Changes:   env.hub,
		Sessions:  store,
		Auth:      env.auth,
		Users:     userService,
		Logger:    logger,
		PublicURL: "https://sparkle.example.com",
	})
	h.Cards = feed.NewCardLoader(likeService, userService, h.PostURL, logger)
	env.handlers = h

	r := chi.NewRouter()
	if viewerID != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := session.WithViewer(req.Context(), &session.Viewer{UserID: viewerID, AccessToken: "token-" + viewerID})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	r.Get("/", h.FeedHandler)
	r.Get("/liked", h.LikedHandler)
	r.Get("/post/{id}", h.PostHandler)
	r.Post("/post/{id}/like", h.LikeHandler)
	r.Get("/post/{id}/share", h.ShareHandler)
	r.Get("/post/{id}/delete", h.DeleteConfirmHandler)
	r.Post("/post/{id}/delete", h.DeleteHandler)
	r.Get("/posts/new", h.NewPostFormHandler)
	r.Post("/posts/new", h.SubmitPostHandler)
	r.Get("/login", h.LoginPageHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/signup", h.SignupHandler)
	r.Get("/auth/github", h.GitHubLoginHandler)
	r.Get("/auth/callback", h.CallbackHandler)
	r.Post("/logout", h.LogoutHandler)
	env.router = r
	return env, nil
}

func strPtr(s string) *string {
	return &s
}
