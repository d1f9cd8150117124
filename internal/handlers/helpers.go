package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("failed to encode response: %v", err)
		}
	}
}

// writeError maps domain errors onto HTTP status codes and writes a JSON
// error body
func writeError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrRegistrationNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrCertificateNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateEntry):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "duplicate entry"})
	case errors.Is(err, models.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "concurrent modification, please retry"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// decodeJSON decodes the request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("invalid request body: %s", err.Error())
	}
	return nil
}

// urlParamInt extracts an integer URL parameter
func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, models.NewValidationError("invalid %s", name)
	}
	return value, nil
}

// queryInt extracts an integer query parameter with a default
func queryInt(r *http.Request, name string, def int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return value
}
