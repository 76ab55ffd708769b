package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/store"
)

// PlayerCheckpoint hides the mine charge, which players learn only by
// probing.
type PlayerCheckpoint struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Village      string `json:"village"`
	Points       int    `json:"points"`
	CaptureCount int    `json:"captureCount"`
}

func handleListCheckpoints(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkpoints, err := deps.Store.ListCheckpoints(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		out := make([]PlayerCheckpoint, 0, len(checkpoints))
		for _, c := range checkpoints {
			out = append(out, PlayerCheckpoint{
				ID:           c.ID,
				Name:         c.Name,
				Description:  c.Description,
				Village:      c.Village,
				Points:       c.Points,
				CaptureCount: c.CaptureCount,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func validateCheckpoint(in *store.CheckpointInput) error {
	in.Name = strings.TrimSpace(in.Name)
	var v fieldgame.ValidationError
	if in.Name == "" {
		v.Add("name", "can't be blank")
	}
	if in.Points < 0 {
		v.Add("points", "must be greater than or equal to 0")
	}
	if v.Empty() {
		return nil
	}
	return &v
}

func handleAdminListCheckpoints(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkpoints, err := deps.Store.ListCheckpoints(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, checkpoints)
	}
}

func handleAdminCreateCheckpoint(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := store.CheckpointInput{Points: 100}
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateCheckpoint(&in); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		c, err := deps.Store.CreateCheckpoint(r.Context(), in, deps.now())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleAdminGetCheckpoint(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := deps.Store.GetCheckpoint(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleAdminUpdateCheckpoint(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in store.CheckpointInput
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateCheckpoint(&in); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		c, err := deps.Store.UpdateCheckpoint(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleAdminDeleteCheckpoint(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.DeleteCheckpoint(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
