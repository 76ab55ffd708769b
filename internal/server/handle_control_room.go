package server

import (
	"log/slog"
	"net/http"
	"time"
)

func handleAdminControlRoom(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := deps.now()
		dayStart := now.Truncate(24 * time.Hour)

		cr, err := deps.Store.ControlRoom(r.Context(), now, dayStart)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, cr)
	}
}
