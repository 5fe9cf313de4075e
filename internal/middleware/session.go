package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"donation-platform/internal/models"
)

// SessionName is the cookie holding the back-office session
const SessionName = "donation_admin"

const (
	sessionUserKey = "user_id"
	sessionCSRFKey = "csrf_token"
)

// SessionTTL is how long a back-office login lasts
const SessionTTL = 8 * time.Hour

// NewSessionStore creates the cookie store for back-office sessions
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// StartSession stores user in a fresh session and returns the session's CSRF
// token, which the client must echo in the X-CSRF-Token header on writes
func (m *AuthMiddleware) StartSession(w http.ResponseWriter, r *http.Request, user *models.User) (string, error) {
	// A stale or tampered cookie still yields a usable new session
	session, _ := m.store.Get(r, SessionName)

	token, err := GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	session.Values[sessionUserKey] = user.ID
	session.Values[sessionCSRFKey] = token
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return token, nil
}

// EndSession clears the back-office session cookie
func (m *AuthMiddleware) EndSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CSRFToken returns the CSRF token of the current session
func (m *AuthMiddleware) CSRFToken(r *http.Request) string {
	return GetCSRFToken(r, m.store)
}
