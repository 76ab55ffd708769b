package fieldgame

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger answers the "last time X happened" questions the scoring engine and
// the cooldown checker ask about recorded events.
type Ledger interface {
	// HasCaptured reports whether the team has a recorded capture event for
	// the checkpoint. Zero-scoring capture events count: a rejected capture
	// is only ever recorded after a real one.
	HasCaptured(ctx context.Context, teamID, checkpointID string) (bool, error)

	// LatestScoringEvent returns the most recent event of kind from teamID
	// against targetTeamID with a non-zero team delta and a time at or before
	// at. It returns nil when there is none.
	LatestScoringEvent(ctx context.Context, kind Kind, teamID, targetTeamID string, at time.Time) (*Event, error)
}

// Action is a resolved submission ready to be scored.
type Action struct {
	Kind       Kind
	Actor      *Team
	Target     *Team
	Checkpoint *Checkpoint
	Stake      int
	// At is the effective time, the submission's submitted_at.
	At         time.Time
	Multiplier decimal.Decimal
	Settings   map[Kind]OptionSetting
}

func (a Action) setting(k Kind) OptionSetting {
	if s, ok := a.Settings[k]; ok {
		return s
	}
	return DefaultSettings()[k]
}

// award scales points by the multiplier. An unset multiplier counts as 1.
func (a Action) award(points int) int {
	if a.Multiplier.IsZero() {
		return points
	}
	return ApplyMultiplier(points, a.Multiplier)
}

// CheckpointChange describes how the targeted checkpoint changes.
type CheckpointChange struct {
	ResetMines      bool
	MineChargeDelta int
	Captured        bool
}

// Outcome is the result of scoring one action. Rejected actions have zero
// deltas and a description saying why.
type Outcome struct {
	ActorDelta        int
	TargetDelta       int
	Description       string
	Checkpoint        CheckpointChange
	ActorFalseInfo    *bool
	TargetFalseInfo   *bool
	TargetBountyDelta int
	HiddenUntil       *time.Time
}

// Apply mutates the given rows. target and cp may be nil when the action
// does not reference them.
func (o Outcome) Apply(actor, target *Team, cp *Checkpoint, at time.Time) {
	actor.Points += o.ActorDelta
	if o.ActorFalseInfo != nil {
		actor.FalseInfo = *o.ActorFalseInfo
	}
	if target != nil {
		target.Points += o.TargetDelta
		target.Bounty += o.TargetBountyDelta
		if o.TargetFalseInfo != nil {
			target.FalseInfo = *o.TargetFalseInfo
		}
	}
	if cp != nil {
		if o.Checkpoint.ResetMines {
			cp.MineCharge = 0
		}
		cp.MineCharge += o.Checkpoint.MineChargeDelta
		if o.Checkpoint.Captured {
			cp.CaptureCount++
			cp.LastAction = &at
		}
	}
}

func rejected(format string, args ...any) Outcome {
	return Outcome{Description: fmt.Sprintf(format, args...)}
}

// Score computes the outcome of a verified action. It never writes; the
// caller applies the outcome and persists it in the same transaction as the
// event.
func Score(ctx context.Context, ledger Ledger, a Action) (Outcome, error) {
	if err := a.check(); err != nil {
		return Outcome{}, err
	}

	switch a.Kind {
	case KindCapture:
		return scoreCapture(ctx, ledger, a)
	case KindPlantMine:
		return scorePlantMine(a), nil
	case KindPhotograph:
		return scorePhotograph(ctx, ledger, a)
	case KindProbe:
		return scoreProbe(a), nil
	case KindSpy:
		return scoreSpy(ctx, ledger, a)
	case KindCounterEspionage:
		return scoreCounterEspionage(a), nil
	case KindNotice:
		return scoreNotice(ctx, ledger, a)
	case KindBounty:
		return scoreBounty(a), nil
	case KindDefuse:
		return scoreDefuse(a), nil
	}
	return Outcome{}, fmt.Errorf("scoring: unknown kind %q", a.Kind)
}

func (a Action) check() error {
	if a.Actor == nil {
		return &ScoringInvariantError{Kind: a.Kind, Missing: "team"}
	}
	req := a.Kind.Requirements()
	if req.Checkpoint && a.Checkpoint == nil {
		return &ScoringInvariantError{Kind: a.Kind, Missing: "checkpoint"}
	}
	if req.TargetTeam && a.Target == nil {
		return &ScoringInvariantError{Kind: a.Kind, Missing: "target team"}
	}
	return nil
}

func scoreCapture(ctx context.Context, ledger Ledger, a Action) (Outcome, error) {
	cp := a.Checkpoint
	captured, err := ledger.HasCaptured(ctx, a.Actor.ID, cp.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up captures: %w", err)
	}
	if captured {
		return rejected("already captured %s", cp.Name), nil
	}

	delta := a.award(cp.Points - cp.MineCharge)
	desc := fmt.Sprintf("captured %s", cp.Name)
	if cp.MineCharge > 0 {
		desc += fmt.Sprintf(" (mine charge %d)", cp.MineCharge)
	}
	if cp.CaptureCount == 0 {
		bonus := a.setting(KindCapture).Points
		delta += bonus
		desc += fmt.Sprintf(", first capture bonus %d", bonus)
	}

	return Outcome{
		ActorDelta:  delta,
		Description: desc,
		Checkpoint:  CheckpointChange{ResetMines: true, Captured: true},
	}, nil
}

func scorePlantMine(a Action) Outcome {
	if a.Stake <= 0 {
		return rejected("mine stake must be positive")
	}
	if a.Actor.Points < a.Stake {
		return rejected("too expensive: mine costs %d, team has %d", a.Stake, a.Actor.Points)
	}
	return Outcome{
		ActorDelta:  -a.Stake,
		Description: fmt.Sprintf("planted mine worth %d on %s", 2*a.Stake, a.Checkpoint.Name),
		Checkpoint:  CheckpointChange{MineChargeDelta: 2 * a.Stake},
	}
}

func scorePhotograph(ctx context.Context, ledger Ledger, a Action) (Outcome, error) {
	if a.Actor.ID == a.Target.ID {
		return rejected("cannot photograph your own team"), nil
	}

	s := a.setting(KindPhotograph)
	cooldown := s.Cooldown()

	last, err := ledger.LatestScoringEvent(ctx, KindPhotograph, a.Actor.ID, a.Target.ID, a.At)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up photographs: %w", err)
	}
	if last != nil && a.At.Sub(last.Time) < cooldown {
		return rejected("too soon: already photographed %s %d min ago, wait %d min",
			a.Target.Name, elapsedMinutes(a.At.Sub(last.Time)), remainingMinutes(cooldown-a.At.Sub(last.Time))), nil
	}

	back, err := ledger.LatestScoringEvent(ctx, KindPhotograph, a.Target.ID, a.Actor.ID, a.At)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up photographs: %w", err)
	}
	if back != nil && a.At.Sub(back.Time) < cooldown {
		return rejected("too soon: %s photographed you %d min ago, retaliation possible in %d min",
			a.Target.Name, elapsedMinutes(a.At.Sub(back.Time)), remainingMinutes(cooldown-a.At.Sub(back.Time))), nil
	}

	o := Outcome{
		ActorDelta:  a.award(s.Points),
		TargetDelta: -s.Points,
		Description: fmt.Sprintf("photographed %s", a.Target.Name),
	}
	if a.Target.Bounty > 0 {
		o.ActorDelta += a.Target.Bounty
		o.TargetBountyDelta = -a.Target.Bounty
		o.Description += fmt.Sprintf(", claimed bounty %d", a.Target.Bounty)
	}
	hidden := a.At.Add(a.setting(KindNotice).Cooldown())
	o.HiddenUntil = &hidden
	return o, nil
}

func scoreProbe(a Action) Outcome {
	cost := a.setting(KindProbe).Cost
	if a.Actor.Points < cost {
		return rejected("not enough points: probing costs %d, team has %d", cost, a.Actor.Points)
	}
	state := "is not mined"
	if a.Checkpoint.MineCharge > 0 {
		state = "is mined"
	}
	return Outcome{
		ActorDelta:  -cost,
		Description: fmt.Sprintf("probed %s: checkpoint %s", a.Checkpoint.Name, state),
	}
}

func scoreSpy(ctx context.Context, ledger Ledger, a Action) (Outcome, error) {
	if a.Actor.ID == a.Target.ID {
		return rejected("cannot spy on your own team"), nil
	}

	s := a.setting(KindSpy)
	last, err := ledger.LatestScoringEvent(ctx, KindSpy, a.Actor.ID, a.Target.ID, a.At)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up espionage: %w", err)
	}
	if last != nil && a.At.Sub(last.Time) < s.Cooldown() {
		return rejected("too soon: already spied on %s, wait %d min",
			a.Target.Name, remainingMinutes(s.Cooldown()-a.At.Sub(last.Time))), nil
	}

	if a.Actor.Points < s.Cost {
		return rejected("not enough points: espionage costs %d, team has %d", s.Cost, a.Actor.Points), nil
	}

	if a.Target.FalseInfo {
		cleared := false
		return Outcome{
			ActorDelta:      -s.Cost,
			Description:     fmt.Sprintf("false information: %s was prepared for espionage", a.Target.Name),
			TargetFalseInfo: &cleared,
		}, nil
	}
	return Outcome{
		ActorDelta:  -s.Cost,
		Description: fmt.Sprintf("espionage: %s has %d points", a.Target.Name, a.Target.Points),
	}, nil
}

func scoreCounterEspionage(a Action) Outcome {
	cost := a.setting(KindCounterEspionage).Cost
	if a.Actor.FalseInfo {
		return rejected("counter-espionage is already active")
	}
	if a.Actor.Points < cost {
		return rejected("not enough points: counter-espionage costs %d, team has %d", cost, a.Actor.Points)
	}
	set := true
	return Outcome{
		ActorDelta:     -cost,
		Description:    "counter-espionage active: the next spy receives false information",
		ActorFalseInfo: &set,
	}
}

func scoreNotice(ctx context.Context, ledger Ledger, a Action) (Outcome, error) {
	if a.Actor.ID == a.Target.ID {
		return rejected("cannot notice a photograph by your own team"), nil
	}

	s := a.setting(KindNotice)
	window := s.Cooldown()

	photo, err := ledger.LatestScoringEvent(ctx, KindPhotograph, a.Target.ID, a.Actor.ID, a.At)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up photographs: %w", err)
	}
	if photo == nil {
		return rejected("no photograph by %s to notice", a.Target.Name), nil
	}
	elapsed := a.At.Sub(photo.Time)
	if elapsed > window {
		return rejected("too late: noticed %d min after the photograph, limit is %d min",
			elapsedMinutes(elapsed), elapsedMinutes(window)), nil
	}

	prior, err := ledger.LatestScoringEvent(ctx, KindNotice, a.Actor.ID, a.Target.ID, a.At)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up notices: %w", err)
	}
	if prior != nil && !prior.Time.Before(photo.Time) && a.At.Sub(prior.Time) < window {
		return rejected("photograph by %s was already noticed", a.Target.Name), nil
	}

	return Outcome{
		ActorDelta:  a.award(s.Points),
		TargetDelta: -s.Points,
		Description: fmt.Sprintf("noticed photograph by %s", a.Target.Name),
	}, nil
}

func scoreBounty(a Action) Outcome {
	if a.Stake <= 0 {
		return rejected("bounty must be positive")
	}
	if a.Actor.Points < a.Stake {
		return rejected("too expensive: bounty costs %d, team has %d", a.Stake, a.Actor.Points)
	}
	return Outcome{
		ActorDelta:        -a.Stake,
		TargetBountyDelta: a.Stake,
		Description:       fmt.Sprintf("set bounty of %d on %s", a.Stake, a.Target.Name),
	}
}

func scoreDefuse(a Action) Outcome {
	cost := a.setting(KindDefuse).Cost
	if a.Actor.Points < cost {
		return rejected("not enough points: defusing costs %d, team has %d", cost, a.Actor.Points)
	}
	return Outcome{
		ActorDelta:  -cost,
		Description: fmt.Sprintf("defused mines worth %d on %s", a.Checkpoint.MineCharge, a.Checkpoint.Name),
		Checkpoint:  CheckpointChange{ResetMines: true},
	}
}

func elapsedMinutes(d time.Duration) int {
	return int(d / time.Minute)
}

func remainingMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
