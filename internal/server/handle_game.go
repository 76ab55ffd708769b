package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

type GameResponse struct {
	Active      bool                     `json:"gameActive"`
	Override    *bool                    `json:"activeOverride,omitempty"`
	Start       *time.Time               `json:"gameStartTime,omitempty"`
	End         *time.Time               `json:"gameEndTime,omitempty"`
	Multiplier  string                   `json:"pointMultiplier"`
	Windows     []fieldgame.TimeWindow   `json:"windows"`
	Defaults    *fieldgame.ClockDefaults `json:"defaults,omitempty"`
	Running     bool                     `json:"running"`
	NextEndTime *time.Time               `json:"nextEndTime,omitempty"`
}

// GameUpdateRequest replaces the editable clock settings.
type GameUpdateRequest struct {
	Active     bool       `json:"gameActive"`
	Override   *bool      `json:"activeOverride"`
	Start      *time.Time `json:"gameStartTime"`
	End        *time.Time `json:"gameEndTime"`
	Multiplier string     `json:"pointMultiplier"`
}

type WindowRequest struct {
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Position int       `json:"position"`
}

func gameResponse(c fieldgame.GameClock, now time.Time) GameResponse {
	return GameResponse{
		Active:      c.Active,
		Override:    c.Override,
		Start:       c.Start,
		End:         c.End,
		Multiplier:  c.Multiplier.String(),
		Windows:     c.Windows,
		Defaults:    c.Defaults,
		Running:     c.IsActive(now),
		NextEndTime: c.NextEnd(now),
	}
}

func handleAdminGetGame(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := deps.Store.LoadClock(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, gameResponse(c, deps.now()))
	}
}

func handleAdminUpdateGame(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var v fieldgame.ValidationError
		multiplier, err := fieldgame.ParseMultiplier(strings.TrimSpace(req.Multiplier))
		if err != nil {
			v.Add("point_multiplier", "must be a positive number")
		}
		if req.Start != nil && req.End != nil && !req.End.After(*req.Start) {
			v.Add("game_end_time", "must be after the start time")
		}
		if !v.Empty() {
			writeDomainError(w, logger, &v)
			return
		}

		updateClock(w, r, logger, deps, "game settings updated", func(c *fieldgame.GameClock) error {
			c.Active = req.Active
			c.Override = req.Override
			c.Start = utcPtr(req.Start)
			c.End = utcPtr(req.End)
			c.Multiplier = multiplier
			return nil
		})
	}
}

// handleAdminClock applies one of the clock actions without a body.
func handleAdminClock(logger *slog.Logger, deps Deps, action string, fn func(c *fieldgame.GameClock, now time.Time)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := deps.now()
		updateClock(w, r, logger, deps, action, func(c *fieldgame.GameClock) error {
			fn(c, now)
			return nil
		})
	}
}

func updateClock(w http.ResponseWriter, r *http.Request, logger *slog.Logger, deps Deps, action string, fn func(*fieldgame.GameClock) error) {
	c, err := deps.Store.UpdateClock(r.Context(), fn)
	if err != nil {
		writeDomainError(w, logger, err)
		return
	}
	logger.Info(action, "admin_id", adminFrom(r).ID, "active", c.Active, "multiplier", c.Multiplier.String())
	writeJSON(w, http.StatusOK, gameResponse(c, deps.now()))
}

func startGame(c *fieldgame.GameClock, now time.Time)      { c.StartGame(now) }
func stopGame(c *fieldgame.GameClock, now time.Time)       { c.StopGame(now) }
func resetGame(c *fieldgame.GameClock, _ time.Time)        { c.ResetToDefaults() }
func saveGameDefaults(c *fieldgame.GameClock, _ time.Time) { c.SaveAsDefaults() }

func handleAdminCreateWindow(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WindowRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			var v fieldgame.ValidationError
			v.Add("name", "can't be blank")
			writeDomainError(w, logger, &v)
			return
		}

		win, err := deps.Store.CreateWindow(r.Context(), fieldgame.TimeWindow{
			Name:     req.Name,
			Start:    req.Start.UTC(),
			End:      req.End.UTC(),
			Position: req.Position,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, win)
	}
}

func handleAdminDeleteWindow(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteWindow(r.Context(), chi.URLParam(r, "id"))
		if err != nil && !errors.Is(err, fieldgame.ErrNotFound) {
			writeDomainError(w, logger, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusNotFound, "window not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
