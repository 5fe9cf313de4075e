package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/sessions"

	"donation-platform/internal/utils"
)

// CSRFHeader carries the token handed out at login
const CSRFHeader = "X-CSRF-Token"

// CSRFMiddleware rejects state-changing requests whose header token does
// not match the session's
type CSRFMiddleware struct {
	store sessions.Store
}

// NewCSRFMiddleware creates a new CSRF middleware
func NewCSRFMiddleware(store sessions.Store) *CSRFMiddleware {
	return &CSRFMiddleware{
		store: store,
	}
}

// CSRFProtection middleware provides CSRF protection for state-changing requests
func (m *CSRFMiddleware) CSRFProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.store.Get(r, SessionName)
		if err != nil {
			writeJSONError(w, http.StatusForbidden, "Invalid session")
			return
		}

		sessionToken, _ := session.Values[sessionCSRFKey].(string)
		requestToken := r.Header.Get(CSRFHeader)
		if sessionToken == "" || subtle.ConstantTimeCompare([]byte(requestToken), []byte(sessionToken)) != 1 {
			writeJSONError(w, http.StatusForbidden, "CSRF token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetCSRFToken returns the session's CSRF token, empty when there is none
func GetCSRFToken(r *http.Request, store sessions.Store) string {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionCSRFKey].(string)
	return token
}

// GenerateCSRFToken generates a CSRF token for the session
func GenerateCSRFToken() (string, error) {
	return utils.GenerateSecureToken(32)
}
