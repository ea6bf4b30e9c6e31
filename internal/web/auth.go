package web

import (
	"context"
	"net/http"
	"strings"

	"Sparkle/internal/core/users"
	"Sparkle/internal/session"
	"Sparkle/internal/supabase"
)

// Auth page messages
const (
	MsgCheckEmail     = "Please check your email to confirm your account"
	MsgSignInFailed   = "Invalid email or password"
	MsgSignUpFailed   = "Could not create your account. Please try again."
	MsgOAuthFailed    = "Sign in with GitHub failed. Please try again."
	MsgCredentialsReq = "Email and password are required"
)

// UserProvisioner creates the users row on first sign in
type UserProvisioner interface {
	EnsureUser(ctx context.Context, req users.EnsureUserRequest) (*users.User, bool, error)
}

// AuthData is the data the login and signup pages render
type AuthData struct {
	Email   string
	Message string
	Error   string
}

// LoginPageHandler handles GET /login. The message query parameter explains
// why the user was sent here.
func (h *Handlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := AuthData{Message: r.URL.Query().Get("message")}
	h.render(w, r, http.StatusOK, "login.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
}

// LoginHandler handles POST /login with email and password
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	data := AuthData{Email: email}

	if email == "" || password == "" {
		data.Error = MsgCredentialsReq
		h.render(w, r, http.StatusBadRequest, "login.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}

	auth, err := h.Auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		h.Logger.Info("password sign in failed", "error", err)
		data.Error = MsgSignInFailed
		h.render(w, r, http.StatusUnauthorized, "login.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}

	h.completeSignIn(w, r, auth)
}

// SignupPageHandler handles GET /signup
func (h *Handlers) SignupPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup.html", h.page(w, r, DefaultMeta(h.pageURL(r)), AuthData{}))
}

// SignupHandler handles POST /signup. Projects that require email
// confirmation return no session; the user is asked to check their inbox.
func (h *Handlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	data := AuthData{Email: email}

	if email == "" || password == "" {
		data.Error = MsgCredentialsReq
		h.render(w, r, http.StatusBadRequest, "signup.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}

	auth, err := h.Auth.SignUp(r.Context(), email, password, h.PublicURL+"/auth/callback")
	if err != nil {
		h.Logger.Info("sign up failed", "error", err)
		data.Error = MsgSignUpFailed
		if msg := supabase.ErrorMessage(err); msg != "" && supabase.ErrorCode(err) != "" {
			data.Error = msg
		}
		h.render(w, r, http.StatusBadRequest, "signup.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}

	if auth.AccessToken == "" {
		data.Message = MsgCheckEmail
		h.render(w, r, http.StatusOK, "signup.html", h.page(w, r, DefaultMeta(h.pageURL(r)), data))
		return
	}
	h.completeSignIn(w, r, auth)
}

// GitHubLoginHandler handles GET /auth/github and starts the PKCE flow
func (h *Handlers) GitHubLoginHandler(w http.ResponseWriter, r *http.Request) {
	pkce, err := supabase.GeneratePKCEChallenge()
	if err != nil {
		h.Logger.Error("failed to generate PKCE challenge", "error", err)
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}
	if err := h.Sessions.SetVerifier(w, r, pkce.Verifier); err != nil {
		h.Logger.Error("failed to store PKCE verifier", "error", err)
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	target := h.Auth.AuthorizeURL("github", h.PublicURL+"/auth/callback", pkce.Challenge)
	http.Redirect(w, r, target, http.StatusFound)
}

// CallbackHandler handles GET /auth/callback?code=... from the OAuth provider
// and from email confirmation links.
func (h *Handlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Logger.Info("oauth provider returned an error",
			"error", errParam, "description", r.URL.Query().Get("error_description"))
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	verifier, err := h.Sessions.PopVerifier(w, r)
	if err != nil {
		h.Logger.Info("oauth callback without pending sign in", "error", err)
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	auth, err := h.Auth.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		h.Logger.Warn("failed to exchange auth code", "error", err)
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	h.completeSignIn(w, r, auth)
}

// completeSignIn stores the session, creates the users row on first sign in
// and returns to the feed.
func (h *Handlers) completeSignIn(w http.ResponseWriter, r *http.Request, auth *supabase.Session) {
	if err := h.Sessions.Save(w, r, auth); err != nil {
		h.Logger.Error("failed to save session", "error", err)
		http.Redirect(w, r, session.LoginURL(MsgOAuthFailed), http.StatusSeeOther)
		return
	}

	if h.Users != nil && auth.User.ID != "" {
		ctx := supabase.WithAccessToken(r.Context(), auth.AccessToken)
		_, created, err := h.Users.EnsureUser(ctx, users.EnsureUserRequest{
			ID:          auth.User.ID,
			Email:       auth.User.Email,
			DisplayName: auth.User.MetadataString("full_name", "name", "user_name"),
			AvatarURL:   auth.User.MetadataString("avatar_url", "picture"),
		})
		if err != nil {
			// Sign in still succeeds; the author falls back to the default profile.
			h.Logger.Warn("failed to ensure user row", "user_id", auth.User.ID, "error", err)
		} else if created {
			h.Logger.Info("new user signed in", "user_id", auth.User.ID)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler handles POST /logout
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if viewer := session.FromContext(r.Context()); viewer != nil {
		if err := h.Auth.SignOut(r.Context(), viewer.AccessToken); err != nil {
			h.Logger.Info("remote sign out failed", "error", err)
		}
	}
	if err := h.Sessions.Clear(w, r); err != nil {
		h.Logger.Warn("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
