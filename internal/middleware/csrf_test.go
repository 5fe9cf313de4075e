package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFProtection(t *testing.T) {
	store := NewSessionStore("test-secret-key", false)
	m := NewAuthMiddleware(&MockAuthService{}, store)
	cookies, token := signIn(t, m, adminUser())

	handler := NewCSRFMiddleware(store).CSRFProtection(okHandler())

	t.Run("safe methods pass", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/campaigns", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withCookies(httptest.NewRequest("POST", "/admin/campaigns", nil), cookies))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "CSRF token mismatch", decodeMessage(t, rr))
	})

	t.Run("wrong token", func(t *testing.T) {
		req := withCookies(httptest.NewRequest("DELETE", "/admin/campaigns/1", nil), cookies)
		req.Header.Set(CSRFHeader, "not-the-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no session", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/admin/campaigns", nil)
		req.Header.Set(CSRFHeader, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("matching token", func(t *testing.T) {
		req := withCookies(httptest.NewRequest("PUT", "/admin/campaigns/1", nil), cookies)
		req.Header.Set(CSRFHeader, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestGetCSRFToken(t *testing.T) {
	store := NewSessionStore("test-secret-key", false)
	cookies, token := signIn(t, NewAuthMiddleware(&MockAuthService{}, store), adminUser())

	assert.Equal(t, token, GetCSRFToken(withCookies(httptest.NewRequest("GET", "/", nil), cookies), store))
	assert.Empty(t, GetCSRFToken(httptest.NewRequest("GET", "/", nil), store))
}

func TestGenerateCSRFToken(t *testing.T) {
	token1, err := GenerateCSRFToken()
	require.NoError(t, err)
	token2, err := GenerateCSRFToken()
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
	assert.Len(t, token1, 44)
}
