package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig([]string{"https://give.example.org"}))(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/donations/initiate", nil)
	req.Header.Set("Origin", "https://give.example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://give.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), CSRFHeader)
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig([]string{"https://give.example.org"}))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/campaigns", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestIsOriginAllowed(t *testing.T) {
	assert.True(t, isOriginAllowed("https://a.example.org", []string{"*"}))
	assert.True(t, isOriginAllowed("https://a.example.org", []string{"*.example.org"}))
	assert.False(t, isOriginAllowed("https://example.org.evil.com", []string{"*.example.org"}))
	assert.False(t, isOriginAllowed("https://a.example.org", nil))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}
