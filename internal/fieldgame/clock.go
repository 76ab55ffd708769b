package fieldgame

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TimeWindow is a named period during which the game accepts submissions.
type TimeWindow struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Position int       `json:"position"`
}

var ErrWindowOrder = errors.New("window end must be after its start")

func (w TimeWindow) Validate() error {
	if !w.End.After(w.Start) {
		return ErrWindowOrder
	}
	return nil
}

// Contains reports whether t lies within the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ClockDefaults is the snapshot restored by GameClock.ResetToDefaults.
type ClockDefaults struct {
	Multiplier decimal.Decimal `json:"pointMultiplier"`
	Active     bool            `json:"gameActive"`
	Start      *time.Time      `json:"gameStartTime"`
	End        *time.Time      `json:"gameEndTime"`
}

// GameClock is the process-wide game configuration. A snapshot is loaded
// per operation and passed into validation and scoring.
type GameClock struct {
	// Active is the main switch toggled by starting and stopping the game.
	Active bool
	// Override, when set, decides the game state regardless of windows
	// and the start/end pair.
	Override   *bool
	Start      *time.Time
	End        *time.Time
	Windows    []TimeWindow
	Multiplier decimal.Decimal
	Defaults   *ClockDefaults
}

// NewGameClock returns an inactive clock with multiplier 1.
func NewGameClock() GameClock {
	return GameClock{Multiplier: decimal.NewFromInt(1)}
}

// IsActive reports whether submissions are accepted at t.
func (c GameClock) IsActive(t time.Time) bool {
	if c.Override != nil {
		return *c.Override
	}
	if !c.Active {
		return false
	}
	if len(c.Windows) > 0 {
		for _, w := range c.Windows {
			if w.Contains(t) {
				return true
			}
		}
		return false
	}
	if c.Start != nil && t.Before(*c.Start) {
		return false
	}
	if c.End != nil && t.After(*c.End) {
		return false
	}
	return true
}

func (c *GameClock) StartGame(now time.Time) {
	c.Active = true
	c.Start = &now
}

func (c *GameClock) StopGame(now time.Time) {
	c.Active = false
	c.End = &now
}

// SaveAsDefaults records the current values as the reset target.
func (c *GameClock) SaveAsDefaults() {
	c.Defaults = &ClockDefaults{
		Multiplier: c.Multiplier,
		Active:     c.Active,
		Start:      c.Start,
		End:        c.End,
	}
}

// ResetToDefaults restores saved defaults, or the factory values when none
// were saved. Windows are kept.
func (c *GameClock) ResetToDefaults() {
	d := ClockDefaults{Multiplier: decimal.NewFromInt(1)}
	if c.Defaults != nil {
		d = *c.Defaults
	}
	c.Multiplier = d.Multiplier
	c.Active = d.Active
	c.Start = d.Start
	c.End = d.End
}

// NextEnd returns the end of the earliest window that has not ended yet,
// or the plain end time when no windows are configured.
func (c GameClock) NextEnd(now time.Time) *time.Time {
	if len(c.Windows) == 0 {
		return c.End
	}
	windows := append([]TimeWindow(nil), c.Windows...)
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	for _, w := range windows {
		if w.End.After(now) {
			end := w.End
			return &end
		}
	}
	return nil
}

// ApplyMultiplier scales a point award, truncating toward zero.
func ApplyMultiplier(points int, m decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(points)).Mul(m).Truncate(0).IntPart())
}

var ErrMultiplier = errors.New("point multiplier must be positive")

// ParseMultiplier parses a positive decimal multiplier such as "1.5".
func ParseMultiplier(s string) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !m.IsPositive() {
		return decimal.Decimal{}, ErrMultiplier
	}
	return m, nil
}
