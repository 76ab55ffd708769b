package server

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/store"
)

type ResetResponse struct {
	Reset        store.Reset `json:"reset"`
	RowsAffected int64       `json:"rowsAffected"`
}

func handleAdminListResets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Resets())
	}
}

func handleAdminApplyReset(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reset := store.Reset(chi.URLParam(r, "name"))
		if !slices.Contains(store.Resets(), reset) {
			writeError(w, http.StatusNotFound, "unknown reset")
			return
		}

		n, err := deps.Store.ApplyReset(r.Context(), reset)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Warn("admin reset applied", "reset", reset, "rows", n, "admin_id", adminFrom(r).ID)
		writeJSON(w, http.StatusOK, ResetResponse{Reset: reset, RowsAffected: n})
	}
}
