// Package session keeps the Supabase session in a signed cookie and resolves
// the current viewer once per request at the router root.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"Sparkle/internal/supabase"
)

const (
	sessionName = "sparkle_session"
	oauthName   = "sparkle_oauth"

	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyVerifier     = "pkce_verifier"

	// SessionMaxAge bounds the cookie lifetime; the refresh token outlives the access token
	SessionMaxAge = 7 * 24 * 60 * 60
	oauthMaxAge   = 10 * 60

	// MinSecretLength is the shortest accepted cookie signing secret
	MinSecretLength = 32
)

// ErrNoVerifier is returned when the OAuth callback has no pending PKCE verifier
var ErrNoVerifier = errors.New("no pending sign-in")

// Tokens are the credentials kept in the session cookie
type Tokens struct {
	ExpiresAt    time.Time
	AccessToken  string
	RefreshToken string
}

// Store reads and writes session cookies
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a cookie store signed and encrypted with secret.
// secure marks cookies HTTPS-only.
func NewStore(secret string, secure bool) (*Store, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	// The second key enables AES encryption of the cookie value.
	cookies := sessions.NewCookieStore([]byte(secret), []byte(secret[:32]))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cookies}, nil
}

// Tokens returns the stored credentials. ok is false when there is no session.
func (s *Store) Tokens(r *http.Request) (Tokens, bool) {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return Tokens{}, false
	}
	access, _ := sess.Values[keyAccessToken].(string)
	refresh, _ := sess.Values[keyRefreshToken].(string)
	if access == "" && refresh == "" {
		return Tokens{}, false
	}
	t := Tokens{AccessToken: access, RefreshToken: refresh}
	if exp, ok := sess.Values[keyExpiresAt].(int64); ok && exp > 0 {
		t.ExpiresAt = time.Unix(exp, 0)
	}
	return t, true
}

// Save stores a freshly issued Supabase session
func (s *Store) Save(w http.ResponseWriter, r *http.Request, auth *supabase.Session) error {
	sess, _ := s.cookies.Get(r, sessionName)
	sess.Values[keyAccessToken] = auth.AccessToken
	sess.Values[keyRefreshToken] = auth.RefreshToken
	sess.Values[keyExpiresAt] = auth.Expiry().Unix()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the session cookie
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, sessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SetVerifier remembers the PKCE verifier between the OAuth redirect and the callback
func (s *Store) SetVerifier(w http.ResponseWriter, r *http.Request, verifier string) error {
	sess, _ := s.cookies.Get(r, oauthName)
	sess.Values[keyVerifier] = verifier
	sess.Options.MaxAge = oauthMaxAge
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save sign-in state: %w", err)
	}
	return nil
}

// PopVerifier returns and forgets the pending PKCE verifier
func (s *Store) PopVerifier(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := s.cookies.Get(r, oauthName)
	if err != nil {
		return "", ErrNoVerifier
	}
	verifier, _ := sess.Values[keyVerifier].(string)
	delete(sess.Values, keyVerifier)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)

	if verifier == "" {
		return "", ErrNoVerifier
	}
	return verifier, nil
}

// AddFlash queues a one-time message for the next page render
func (s *Store) AddFlash(w http.ResponseWriter, r *http.Request, message string) {
	sess, _ := s.cookies.Get(r, sessionName)
	sess.AddFlash(message)
	_ = sess.Save(r, w)
}

// Flashes returns and clears the queued messages
func (s *Store) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			messages = append(messages, m)
		}
	}
	return messages
}
