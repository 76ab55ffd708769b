package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is returned with 422 when input is rejected.
type ValidationErrorResponse struct {
	Error    string              `json:"error"`
	Messages []string            `json:"messages"`
	Fields   map[string][]string `json:"fields"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps errors from the store and the submission service to
// HTTP responses. Anything unrecognised is logged and reported as 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *fieldgame.ValidationError
	var invariant *fieldgame.ScoringInvariantError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:    "validation failed",
			Messages: validation.Messages(),
			Fields:   validation.Fields,
		})
	case errors.Is(err, fieldgame.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, fieldgame.ErrStateConflict), errors.Is(err, fieldgame.ErrBlocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, fieldgame.ErrTeamLocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, fieldgame.ErrSessionBlocked):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &invariant):
		logger.Error("scoring invariant violated", "kind", invariant.Kind, "missing", invariant.Missing)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
