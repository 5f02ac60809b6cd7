// Package session keeps the logged-in user and flash messages in a signed
// cookie session.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"storefront/internal/models"
)

const (
	CookieName = "storefront_session"
	userKey    = "user"
	maxAge     = 86400 * 7

	FlashError   = "error"
	FlashSuccess = "success"
	FlashInfo    = "info"
)

var flashKinds = []string{FlashError, FlashSuccess, FlashInfo}

func init() {
	gob.Register(models.SessionUser{})
}

// Manager wraps the cookie store. The zero value is not usable.
type Manager struct {
	store sessions.Store
}

// NewManager builds a cookie store signed with secret.
func NewManager(secret string, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

func (m *Manager) get(r *http.Request) *sessions.Session {
	// A cookie that fails to decode yields a fresh session, which is what
	// a logged-out visitor should see.
	s, _ := m.store.Get(r, CookieName)
	return s
}

// User returns the session user, if any.
func (m *Manager) User(r *http.Request) (models.SessionUser, bool) {
	u, ok := m.get(r).Values[userKey].(models.SessionUser)
	return u, ok
}

func (m *Manager) Login(w http.ResponseWriter, r *http.Request, u models.SessionUser) error {
	s := m.get(r)
	s.Values[userKey] = u
	return s.Save(r, w)
}

// Logout drops the user and expires the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, userKey)
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Flash queues message under kind for the next rendered page.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, kind, message string) error {
	s := m.get(r)
	s.AddFlash(message, kind)
	return s.Save(r, w)
}

// Flashes consumes every queued message, grouped by kind. Kinds without
// messages are omitted.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) (map[string][]string, error) {
	s := m.get(r)
	out := make(map[string][]string)
	consumed := false
	for _, kind := range flashKinds {
		for _, f := range s.Flashes(kind) {
			consumed = true
			if msg, ok := f.(string); ok {
				out[kind] = append(out[kind], msg)
			}
		}
	}
	if !consumed {
		return out, nil
	}
	return out, s.Save(r, w)
}
