// Package endpoints implements the snipd HTTP API. Each endpoint doubles
// as a cobra command that calls the same route on a running server.
package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snipd/snipd/internal/engine"
	"github.com/snipd/snipd/internal/snippet"
	"github.com/snipd/snipd/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps engine and store errors onto HTTP status codes.
func statusFor(err error) int {
	var cycleErr *snippet.CycleError
	var missingErr *snippet.MissingError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNameTaken):
		return http.StatusConflict
	case errors.As(err, &cycleErr), errors.As(err, &missingErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes an error response with a mapped status code.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
