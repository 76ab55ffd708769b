package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// AdminSessionItem is a player session with derived state.
type AdminSessionItem struct {
	fieldgame.PlayerSession
	Active  bool `json:"active"`
	Blocked bool `json:"blocked"`
}

func handleAdminListSessions(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := deps.Store.ListSessions(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		now := deps.now()
		out := make([]AdminSessionItem, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, AdminSessionItem{PlayerSession: s, Active: s.Active(now), Blocked: s.Blocked(now)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminUnblockSession(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Store.UnblockSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("session unblocked", "session_id", s.ID, "admin_id", adminFrom(r).ID)
		now := deps.now()
		writeJSON(w, http.StatusOK, AdminSessionItem{PlayerSession: s, Active: s.Active(now), Blocked: s.Blocked(now)})
	}
}
