// Package session is the signed-cookie transport for the auth token. The
// token value travels in and out as an immutable string; the cookie itself
// is signed by gorilla/sessions, so the server trusts the signature rather
// than a server-side session table.
package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "session"
	tokenKey   = "token"
)

type Manager struct {
	store *sessions.CookieStore
}

func NewManager(secret string, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure

	return &Manager{store: store}
}

// Token extracts the auth token from the request's signed cookie. The
// second return is false when the cookie is absent, unsigned, or carries
// no token.
func (m *Manager) Token(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, cookieName)
	if err != nil {
		return "", false
	}

	token, ok := session.Values[tokenKey].(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Write sets the auth token on the response cookie.
func (m *Manager) Write(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := m.store.Get(r, cookieName)
	session.Values[tokenKey] = token
	return session.Save(r, w)
}

// Clear drops the session cookie. This is the only revocation path: an
// already-issued token stays valid until it expires.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, cookieName)
	delete(session.Values, tokenKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
