package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// LoadClock returns a snapshot of the game clock including its windows.
func (s *Store) LoadClock(ctx context.Context) (fieldgame.GameClock, error) {
	c := fieldgame.NewGameClock()

	var override sql.NullBool
	var start, end, defaults sql.NullString
	var multiplier string
	err := s.q.QueryRowContext(ctx, `
		SELECT game_active, active_override, start_time, end_time, point_multiplier, defaults
		FROM game_settings WHERE id = 1
	`).Scan(&c.Active, &override, &start, &end, &multiplier, &defaults)
	if err != nil {
		return c, fmt.Errorf("loading game settings: %w", err)
	}

	if override.Valid {
		c.Override = &override.Bool
	}
	if c.Start, err = parseNullTime(start); err != nil {
		return c, err
	}
	if c.End, err = parseNullTime(end); err != nil {
		return c, err
	}
	if c.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
		return c, fmt.Errorf("parsing point multiplier: %w", err)
	}
	if defaults.Valid {
		var d fieldgame.ClockDefaults
		if err := json.Unmarshal([]byte(defaults.String), &d); err != nil {
			return c, fmt.Errorf("parsing clock defaults: %w", err)
		}
		c.Defaults = &d
	}

	c.Windows, err = s.ListWindows(ctx)
	return c, err
}

// SaveClock writes the clock settings. Windows are managed separately.
func (s *Store) SaveClock(ctx context.Context, c fieldgame.GameClock) error {
	var override any
	if c.Override != nil {
		override = boolInt(*c.Override)
	}
	var defaults any
	if c.Defaults != nil {
		b, err := json.Marshal(c.Defaults)
		if err != nil {
			return fmt.Errorf("encoding clock defaults: %w", err)
		}
		defaults = string(b)
	}

	_, err := s.q.ExecContext(ctx, `
		UPDATE game_settings SET
			game_active = ?, active_override = ?, start_time = ?, end_time = ?,
			point_multiplier = ?, defaults = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = 1
	`, boolInt(c.Active), override, nullTime(c.Start), nullTime(c.End), c.Multiplier.String(), defaults)
	if err != nil {
		return fmt.Errorf("saving game settings: %w", err)
	}
	return nil
}

// UpdateClock loads the clock, applies fn and saves the result in one
// transaction.
func (s *Store) UpdateClock(ctx context.Context, fn func(*fieldgame.GameClock) error) (fieldgame.GameClock, error) {
	var c fieldgame.GameClock
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		if c, err = tx.LoadClock(ctx); err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		return tx.SaveClock(ctx, c)
	})
	return c, err
}

func (s *Store) ListWindows(ctx context.Context) ([]fieldgame.TimeWindow, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, start_time, end_time, position FROM game_windows ORDER BY position, start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	defer rows.Close()

	windows := []fieldgame.TimeWindow{}
	for rows.Next() {
		var w fieldgame.TimeWindow
		var start, end string
		if err := rows.Scan(&w.ID, &w.Name, &start, &end, &w.Position); err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		if w.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if w.End, err = parseTime(end); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (s *Store) CreateWindow(ctx context.Context, w fieldgame.TimeWindow) (fieldgame.TimeWindow, error) {
	if err := w.Validate(); err != nil {
		return w, fieldError("end", "must be after start")
	}
	w.ID = newID()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO game_windows (id, name, start_time, end_time, position) VALUES (?, ?, ?, ?, ?)
	`, w.ID, w.Name, formatTime(w.Start), formatTime(w.End), w.Position)
	if err != nil {
		return w, fmt.Errorf("creating window: %w", err)
	}
	return w, nil
}

func (s *Store) DeleteWindow(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM game_windows WHERE id = ?`, id)
	return affectedOne(res, err)
}
