package server

import (
	"net/http"

	"github.com/playperu/fieldgame/internal/store"
)

const adminCookieName = "admin_session"

func setAdminCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(store.AdminSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// adminFromRequest reads the admin_session cookie and looks up the admin.
func adminFromRequest(r *http.Request, deps Deps) (store.Admin, error) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		return store.Admin{}, store.ErrNoAdminSession
	}
	return deps.Store.AdminFromSession(r.Context(), cookie.Value, deps.now())
}
