package fieldgame

import (
	"context"
	"fmt"
	"math"
	"time"
)

// CooldownResult is the answer of CheckCooldown. Reason is set when the
// action is not allowed.
type CooldownResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckCooldown decides whether the team may perform kind against
// targetTeamID at time at. It only consults events with a non-zero team
// delta; rejected attempts never start a cooldown.
func CheckCooldown(ctx context.Context, ledger Ledger, kind Kind, teamID, targetTeamID string, setting OptionSetting, at time.Time) (CooldownResult, error) {
	if !kind.HasCooldown() || setting.CooldownSeconds <= 0 {
		return CooldownResult{Allowed: true}, nil
	}
	if targetTeamID == "" {
		return CooldownResult{Reason: "target team required"}, nil
	}

	last, err := ledger.LatestScoringEvent(ctx, kind, teamID, targetTeamID, at)
	if err != nil {
		return CooldownResult{}, fmt.Errorf("checking cooldown: %w", err)
	}
	if last == nil {
		return CooldownResult{Allowed: true}, nil
	}

	remaining := setting.Cooldown() - at.Sub(last.Time)
	if remaining <= 0 {
		return CooldownResult{Allowed: true}, nil
	}
	return CooldownResult{Reason: cooldownReason(kind, remaining)}, nil
}

func cooldownReason(kind Kind, remaining time.Duration) string {
	if kind == KindNotice {
		return fmt.Sprintf("cooldown active, try again in %d seconds", int(math.Ceil(remaining.Seconds())))
	}
	return fmt.Sprintf("cooldown active, try again in %d minutes", remainingMinutes(remaining))
}
