package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// PlayerOption is an action kind as offered to players.
type PlayerOption struct {
	Kind            fieldgame.Kind `json:"kind"`
	Name            string         `json:"name"`
	RequiresPhoto   bool           `json:"requiresPhoto"`
	Checkpoint      bool           `json:"requiresCheckpoint"`
	TargetTeam      bool           `json:"requiresTargetTeam"`
	Stake           bool           `json:"requiresStake"`
	Points          int            `json:"points"`
	Cost            int            `json:"cost"`
	CooldownSeconds int            `json:"cooldownSeconds"`
	RuleText        string         `json:"ruleText"`
}

// AdminOptionRequest updates the tunable fields of one kind.
type AdminOptionRequest struct {
	Name               string `json:"name"`
	RequiresPhoto      bool   `json:"requiresPhoto"`
	AutoVerify         bool   `json:"autoVerify"`
	Points             int    `json:"points"`
	Cost               int    `json:"cost"`
	CooldownSeconds    int    `json:"cooldownSeconds"`
	RuleText           string `json:"ruleText"`
	AvailableToPlayers bool   `json:"availableToPlayers"`
}

func handleListOptions(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := deps.Store.OptionSettingsList(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		out := []PlayerOption{}
		for _, s := range settings {
			if !s.AvailableToPlayers {
				continue
			}
			req := s.Kind.Requirements()
			out = append(out, PlayerOption{
				Kind:            s.Kind,
				Name:            s.Name,
				RequiresPhoto:   s.RequiresPhoto,
				Checkpoint:      req.Checkpoint,
				TargetTeam:      req.TargetTeam,
				Stake:           req.Stake,
				Points:          s.Points,
				Cost:            s.Cost,
				CooldownSeconds: s.CooldownSeconds,
				RuleText:        s.RuleText,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminListOptions(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := deps.Store.OptionSettingsList(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func handleAdminUpdateOption(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := fieldgame.Kind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			writeError(w, http.StatusNotFound, "unknown kind")
			return
		}

		var req AdminOptionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var v fieldgame.ValidationError
		if req.Name == "" {
			v.Add("name", "can't be blank")
		}
		if req.Points < 0 {
			v.Add("points", "must be greater than or equal to 0")
		}
		if req.Cost < 0 {
			v.Add("cost", "must be greater than or equal to 0")
		}
		if req.CooldownSeconds < 0 {
			v.Add("cooldown_seconds", "must be greater than or equal to 0")
		}
		if !v.Empty() {
			writeDomainError(w, logger, &v)
			return
		}

		current, err := deps.Store.OptionSettings(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		s := current[kind]
		s.Kind = kind
		s.Name = req.Name
		s.RequiresPhoto = req.RequiresPhoto
		s.AutoVerify = req.AutoVerify
		s.Points = req.Points
		s.Cost = req.Cost
		s.CooldownSeconds = req.CooldownSeconds
		s.RuleText = req.RuleText
		s.AvailableToPlayers = req.AvailableToPlayers

		if err := deps.Store.SaveOptionSetting(r.Context(), s); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("option setting updated", "kind", kind, "admin_id", adminFrom(r).ID)
		writeJSON(w, http.StatusOK, s)
	}
}

func handleAdminResetRules(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.ResetRules(r.Context()); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		handleAdminListOptions(logger, deps)(w, r)
	}
}

func handleAdminSaveRuleDefaults(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.SaveRulesAsDefaults(r.Context()); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		handleAdminListOptions(logger, deps)(w, r)
	}
}
