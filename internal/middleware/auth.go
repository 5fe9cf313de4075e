package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"donation-platform/internal/models"
	"donation-platform/internal/services"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware loads back-office users from their session cookie
type AuthMiddleware struct {
	authService services.AuthServiceInterface
	store       sessions.Store
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService services.AuthServiceInterface, store sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		store:       store,
	}
}

// LoadUser middleware loads the current user from session and adds to context
func (m *AuthMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, SessionName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, ok := session.Values[sessionUserKey].(int)
		if !ok || userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.authService.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) || errors.Is(err, models.ErrUnauthorized) {
				// Account removed or disabled since login
				if err := m.EndSession(w, r); err != nil {
					log.Printf("Failed to clear session for user %d: %v", userID, err)
				}
			} else {
				log.Printf("Failed to load session user %d: %v", userID, err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth middleware ensures a back-office user is signed in
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole middleware ensures user has the required role. Admins pass
// every role check.
func (m *AuthMiddleware) RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if user.Role != role && !user.IsAdmin() {
				writeJSONError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext retrieves the user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// SetUserContext sets the user in the context (for testing)
func SetUserContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
