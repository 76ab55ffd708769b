package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/fieldgame/internal/handler/live"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Field Game API", "/openapi.json", "/docs"))

	// Player routes, authenticated with the bearer token issued on join.
	r.Post("/api/join", handleJoin(logger, deps))
	r.Group(func(r chi.Router) {
		r.Use(playerAuthMiddleware(logger, deps))
		r.Get("/api/session", handleSession(logger, deps))
		r.Put("/api/team/name", handleRenameTeam(logger, deps))
		r.Get("/api/options", handleListOptions(logger, deps))
		r.Get("/api/targets", handleListTargets(logger, deps))
		r.Get("/api/checkpoints", handleListCheckpoints(logger, deps))
		r.Get("/api/submissions", handleListSubmissions(logger, deps))
		r.Post("/api/submissions", handleCreateSubmission(logger, deps))
		r.Get("/api/submissions/{id}", handleGetSubmission(logger, deps))
		r.Get("/api/events", handleEvents(logger, deps))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", handleAdminLogin(logger, deps))
		r.Post("/logout", handleAdminLogout(logger, deps))
		r.Group(func(r chi.Router) { addAdminRoutes(r, logger, deps) })
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}

// addAdminRoutes registers the routes that require an admin session.
func addAdminRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Use(adminAuthMiddleware(logger, deps))

	r.Get("/me", handleAdminMe())
	r.Get("/control-room", handleAdminControlRoom(logger, deps))
	r.Mount("/live", live.NewAdminHandler(logger, deps.Broker).Routes())

	r.Route("/submissions", func(r chi.Router) {
		r.Get("/", handleAdminListSubmissions(logger, deps))
		r.Get("/{id}", handleAdminGetSubmission(logger, deps))
		r.Post("/{id}/verify", handleAdminVerify(logger, deps))
		r.Post("/{id}/deny", handleAdminDeny(logger, deps))
		r.Get("/{id}/queue", handleAdminQueueStatus(logger, deps))
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", handleAdminListTeams(logger, deps))
		r.Post("/", handleAdminCreateTeam(logger, deps))
		r.Get("/{id}", handleAdminGetTeam(logger, deps))
		r.Put("/{id}", handleAdminUpdateTeam(logger, deps))
		r.Delete("/{id}", handleAdminDeleteTeam(logger, deps))
		r.Post("/{id}/regenerate-token", handleAdminRegenerateToken(logger, deps))
	})

	r.Route("/checkpoints", func(r chi.Router) {
		r.Get("/", handleAdminListCheckpoints(logger, deps))
		r.Post("/", handleAdminCreateCheckpoint(logger, deps))
		r.Get("/{id}", handleAdminGetCheckpoint(logger, deps))
		r.Put("/{id}", handleAdminUpdateCheckpoint(logger, deps))
		r.Delete("/{id}", handleAdminDeleteCheckpoint(logger, deps))
	})

	r.Route("/options", func(r chi.Router) {
		r.Get("/", handleAdminListOptions(logger, deps))
		r.Put("/{kind}", handleAdminUpdateOption(logger, deps))
		r.Post("/rules/reset", handleAdminResetRules(logger, deps))
		r.Post("/rules/save-defaults", handleAdminSaveRuleDefaults(logger, deps))
	})

	r.Route("/game", func(r chi.Router) {
		r.Get("/", handleAdminGetGame(logger, deps))
		r.Put("/", handleAdminUpdateGame(logger, deps))
		r.Post("/start", handleAdminClock(logger, deps, "game started", startGame))
		r.Post("/stop", handleAdminClock(logger, deps, "game stopped", stopGame))
		r.Post("/reset", handleAdminClock(logger, deps, "game settings reset", resetGame))
		r.Post("/save-defaults", handleAdminClock(logger, deps, "game defaults saved", saveGameDefaults))
		r.Post("/windows", handleAdminCreateWindow(logger, deps))
		r.Delete("/windows/{id}", handleAdminDeleteWindow(logger, deps))
	})

	r.Get("/resets", handleAdminListResets())
	r.Post("/resets/{name}", handleAdminApplyReset(logger, deps))

	r.Get("/photos/{id}", handleAdminPhoto(logger, deps))
	r.Delete("/photos/{id}", handleAdminPurgePhoto(logger, deps))
	r.Post("/photos/purge", handleAdminPurgePhotos(logger, deps))

	r.Get("/sessions", handleAdminListSessions(logger, deps))
	r.Post("/sessions/{id}/unblock", handleAdminUnblockSession(logger, deps))
}
