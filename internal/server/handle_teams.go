package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/store"
)

// TargetTeam is a rival team a player can aim an action at.
type TargetTeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func handleListTargets(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := deps.Store.ListTeams(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		own := playerFrom(r).Team.ID
		out := []TargetTeam{}
		for _, t := range teams {
			if t.ID == own {
				continue
			}
			out = append(out, TargetTeam{ID: t.ID, Name: t.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func validateTeam(in *store.TeamInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		var v fieldgame.ValidationError
		v.Add("name", "can't be blank")
		return &v
	}
	return nil
}

func handleAdminListTeams(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := deps.Store.ListTeams(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleAdminCreateTeam(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in store.TeamInput
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateTeam(&in); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		team, err := deps.Store.CreateTeam(r.Context(), in, deps.now())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("team created", "team_id", team.ID, "admin_id", adminFrom(r).ID)
		writeJSON(w, http.StatusCreated, team)
	}
}

func handleAdminGetTeam(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := deps.Store.GetTeam(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleAdminUpdateTeam(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in store.TeamInput
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateTeam(&in); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		team, err := deps.Store.UpdateTeam(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleAdminDeleteTeam(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Store.DeleteTeam(r.Context(), id); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("team deleted", "team_id", id, "admin_id", adminFrom(r).ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdminRegenerateToken(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := deps.Store.RegenerateJoinToken(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}
