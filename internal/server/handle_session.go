package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// PlayerTeam is a team as its own players see it.
type PlayerTeam struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	Bounty       int    `json:"bounty"`
	FalseInfo    bool   `json:"falseInfo"`
	NameEditable bool   `json:"nameEditable"`
}

type SessionResponse struct {
	Player      fieldgame.PlayerSession `json:"player"`
	Team        PlayerTeam              `json:"team"`
	GameActive  bool                    `json:"gameActive"`
	NextEndTime *time.Time              `json:"nextEndTime,omitempty"`
}

type RenameTeamRequest struct {
	Name string `json:"name"`
}

func (deps Deps) playerTeam(r *http.Request, team fieldgame.Team) (PlayerTeam, error) {
	visible, err := deps.Store.VisiblePoints(r.Context(), team, deps.now())
	if err != nil {
		return PlayerTeam{}, err
	}
	return PlayerTeam{
		ID:           team.ID,
		Name:         team.Name,
		Points:       visible,
		Bounty:       team.Bounty,
		FalseInfo:    team.FalseInfo,
		NameEditable: team.NameEditable,
	}, nil
}

func handleSession(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := playerFrom(r)
		now := deps.now()

		team, err := deps.playerTeam(r, p.Team)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		clock, err := deps.Store.LoadClock(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, SessionResponse{
			Player:      p.Session,
			Team:        team,
			GameActive:  clock.IsActive(now),
			NextEndTime: clock.NextEnd(now),
		})
	}
}

func handleRenameTeam(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenameTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		p := playerFrom(r)
		team, err := deps.Store.RenameTeam(r.Context(), p.Team.ID, req.Name)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		out, err := deps.playerTeam(r, team)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
