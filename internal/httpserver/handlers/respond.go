package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"provtrack/internal/sentinel"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondError maps domain sentinel errors onto HTTP statuses. Conflicts are
// marked retryable so clients know to re-run the whole operation.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	retryable := false
	switch {
	case errors.Is(err, sentinel.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, sentinel.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sentinel.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, sentinel.ErrConflict):
		status = http.StatusConflict
		retryable = true
	case errors.Is(err, sentinel.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "retryable": retryable})
}
