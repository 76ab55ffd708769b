package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/notify"
)

const deviceHeader = "X-Device-Fingerprint"

type JoinRequest struct {
	JoinToken  string `json:"joinToken"`
	PlayerName string `json:"playerName"`
}

type JoinResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

// PlayerJoined is broadcast on the team channel after a successful join.
type PlayerJoined struct {
	PlayerName string `json:"playerName"`
}

func handleJoin(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerName = strings.TrimSpace(req.PlayerName)
		req.JoinToken = strings.TrimSpace(req.JoinToken)
		if req.PlayerName == "" || req.JoinToken == "" {
			writeError(w, http.StatusBadRequest, "joinToken and playerName are required")
			return
		}
		fingerprint := strings.TrimSpace(r.Header.Get(deviceHeader))
		if fingerprint == "" {
			writeError(w, http.StatusBadRequest, deviceHeader+" header is required")
			return
		}

		now := deps.now()
		sess, err := deps.Store.SessionForDevice(r.Context(), fingerprint, req.PlayerName, now)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		sess, team, err := deps.Store.JoinTeam(r.Context(), sess.ID, req.JoinToken, now)
		if errors.Is(err, fieldgame.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if errors.Is(err, fieldgame.ErrTeamLocked) || errors.Is(err, fieldgame.ErrSessionBlocked) {
			logger.Warn("join rejected", "session_id", sess.ID, "attempts", sess.FailedAttempts, "error", err)
			writeDomainError(w, logger, err)
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		token, err := deps.Tokens.Issue(sess.ID, now)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		if deps.Notifier != nil {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), notifyTimeout)
			if err := deps.Notifier.Notify(ctx, notify.TeamChannel(team.ID), notify.Message{
				Type:    notify.TypePlayerJoined,
				Payload: PlayerJoined{PlayerName: sess.PlayerName},
			}); err != nil {
				logger.Warn("notification failed", "channel", notify.TeamChannel(team.ID), "error", err)
			}
			cancel()
		}

		logger.Info("player joined", "session_id", sess.ID, "team_id", team.ID)
		writeJSON(w, http.StatusOK, JoinResponse{
			Token:    token,
			PlayerID: sess.ID,
			TeamID:   team.ID,
			TeamName: team.Name,
		})
	}
}
