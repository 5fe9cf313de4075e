package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
)

// errorBody is the JSON shape every middleware failure is reported in
type errorBody struct {
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: message})
}

// ErrorHandlingMiddleware recovers panics into a JSON 500
func ErrorHandlingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("PANIC [%s] %s %s: %v\n%s", RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err, debug.Stack())
				writeJSONError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Resource not found")
	})
}

// MethodNotAllowedHandler handles 405 errors
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed for this endpoint")
	})
}
