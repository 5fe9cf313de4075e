package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"donation-platform/internal/middleware"
	"donation-platform/internal/models"
	"donation-platform/internal/services"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ListResponse wraps one page of a listing
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta models.Page `json:"meta"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeError maps service errors onto HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Message: verrs.First(),
			Errors:  verrs,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrTargetNotFound):
		writeMessage(w, http.StatusNotFound, "Donation target not found")
	case errors.Is(err, models.ErrDonationNotFound):
		writeMessage(w, http.StatusNotFound, "Donation not found")
	case errors.Is(err, models.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, models.ErrDuplicateEntry):
		writeMessage(w, http.StatusConflict, "A record with the same slug already exists")
	case errors.Is(err, models.ErrTargetInactive), errors.Is(err, models.ErrAmountMismatch), errors.Is(err, models.ErrInvalidStatusChange):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidCategory), errors.Is(err, models.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrImageTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, models.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, models.ErrPaymentGateway):
		log.Printf("[%s] %s %s: %v", middleware.RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusBadGateway, "The payment provider is unavailable. Please try again shortly.")
	default:
		log.Printf("[%s] %s %s: %v", middleware.RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", models.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body", models.ErrInvalidInput)
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

// queryDate parses a YYYY-MM-DD query parameter; endOfDay moves it to the
// last instant of that day
func queryDate(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, models.ValidationErrors{name: {"must be a date formatted YYYY-MM-DD"}}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", models.ErrInvalidInput, value)
	}
	return id, nil
}
