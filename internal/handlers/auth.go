package handlers

import (
	"log"
	"net/http"

	"donation-platform/internal/middleware"
	"donation-platform/internal/models"
	"donation-platform/internal/services"
)

// SessionManager starts and ends back-office sessions
type SessionManager interface {
	StartSession(w http.ResponseWriter, r *http.Request, user *models.User) (string, error)
	EndSession(w http.ResponseWriter, r *http.Request) error
	CSRFToken(r *http.Request) string
}

// AuthHandler handles back-office sign in and out
type AuthHandler struct {
	authService services.AuthServiceInterface
	sessions    SessionManager
	audit       services.AuditServiceInterface
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService services.AuthServiceInterface, sessions SessionManager, audit services.AuditServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		audit:       audit,
	}
}

// SessionResponse describes the signed-in user and the token to send in
// the X-CSRF-Token header
type SessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

// Login handles POST /admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.sessions.StartSession(w, r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.audit.LogAction(r.Context(), user.ID, models.AuditActionLogin, models.AuditTargetUser, user.ID, nil, r); err != nil {
		log.Printf("Failed to audit login of user %d: %v", user.ID, err)
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user, CSRFToken: token})
}

// Logout handles POST /admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(w, r); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /admin/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user, CSRFToken: h.sessions.CSRFToken(r)})
}
