package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/store"
)

type ctxKey int

const (
	ctxKeyPlayer ctxKey = iota
	ctxKeyAdmin
)

// player is the authenticated device session together with its team.
type player struct {
	Session fieldgame.PlayerSession
	Team    fieldgame.Team
}

func playerAuthMiddleware(logger *slog.Logger, deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			now := deps.now()
			sessionID, err := deps.Tokens.Parse(token, now)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			sess, err := deps.Store.GetSession(r.Context(), sessionID)
			if errors.Is(err, fieldgame.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			if sess.TeamID == "" {
				writeError(w, http.StatusForbidden, "session has not joined a team")
				return
			}
			team, err := deps.Store.GetTeam(r.Context(), sess.TeamID)
			if errors.Is(err, fieldgame.ErrNotFound) {
				writeError(w, http.StatusForbidden, "team no longer exists")
				return
			}
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}

			if err := deps.Store.TouchSession(r.Context(), sess.ID, now); err != nil {
				logger.Warn("touching session failed", "session_id", sess.ID, "error", err)
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, player{Session: sess, Team: team})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthMiddleware(logger *slog.Logger, deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := adminFromRequest(r, deps)
			if errors.Is(err, store.ErrNoAdminSession) {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) player {
	return r.Context().Value(ctxKeyPlayer).(player)
}

func adminFrom(r *http.Request) store.Admin {
	return r.Context().Value(ctxKeyAdmin).(store.Admin)
}
