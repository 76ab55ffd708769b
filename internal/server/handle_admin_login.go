package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/fieldgame/internal/store"
)

// AdminLoginRequest is the request body for POST /api/admin/login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminMeResponse is the response for GET /api/admin/me.
type AdminMeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func handleAdminLogin(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		admin, err := deps.Store.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, store.ErrNoAdminSession) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		sessionID, err := deps.Store.CreateAdminSession(r.Context(), admin.ID, deps.now())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		setAdminCookie(w, sessionID)

		logger.Info("admin logged in", "admin_id", admin.ID)
		writeJSON(w, http.StatusOK, AdminMeResponse{ID: admin.ID, Email: admin.Email})
	}
}

func handleAdminLogout(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			if err := deps.Store.DeleteAdminSession(r.Context(), cookie.Value); err != nil {
				logger.Warn("deleting admin session failed", "error", err)
			}
		}
		clearAdminCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin := adminFrom(r)
		writeJSON(w, http.StatusOK, AdminMeResponse{ID: admin.ID, Email: admin.Email})
	}
}
