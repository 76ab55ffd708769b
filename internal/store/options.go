package store

import (
	"context"
	"fmt"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// EnsureOptionSettings inserts the default settings of every kind that has
// no row yet. Existing rows are left alone.
func (s *Store) EnsureOptionSettings(ctx context.Context) error {
	for _, kind := range fieldgame.Kinds() {
		d := fieldgame.DefaultSettings()[kind]
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO option_settings (kind, name, requires_photo, auto_verify, points, cost,
				cooldown_seconds, rule_text, rule_text_default, available_to_players)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (kind) DO NOTHING
		`, d.Kind, d.Name, boolInt(d.RequiresPhoto), boolInt(d.AutoVerify), d.Points, d.Cost,
			d.CooldownSeconds, d.RuleText, d.RuleTextDefault, boolInt(d.AvailableToPlayers))
		if err != nil {
			return fmt.Errorf("seeding %s settings: %w", kind, err)
		}
	}
	return nil
}

// OptionSettings returns the settings of every kind, falling back to the
// defaults for kinds without a row.
func (s *Store) OptionSettings(ctx context.Context) (map[fieldgame.Kind]fieldgame.OptionSetting, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT kind, name, requires_photo, auto_verify, points, cost, cooldown_seconds,
			rule_text, rule_text_default, available_to_players
		FROM option_settings
	`)
	if err != nil {
		return nil, fmt.Errorf("loading option settings: %w", err)
	}
	defer rows.Close()

	settings := fieldgame.DefaultSettings()
	for rows.Next() {
		var o fieldgame.OptionSetting
		if err := rows.Scan(&o.Kind, &o.Name, &o.RequiresPhoto, &o.AutoVerify, &o.Points, &o.Cost,
			&o.CooldownSeconds, &o.RuleText, &o.RuleTextDefault, &o.AvailableToPlayers); err != nil {
			return nil, fmt.Errorf("scanning option setting: %w", err)
		}
		if o.Kind.Valid() {
			settings[o.Kind] = o
		}
	}
	return settings, rows.Err()
}

// OptionSettingsList returns the settings in display order.
func (s *Store) OptionSettingsList(ctx context.Context) ([]fieldgame.OptionSetting, error) {
	m, err := s.OptionSettings(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]fieldgame.OptionSetting, 0, len(m))
	for _, k := range fieldgame.Kinds() {
		list = append(list, m[k])
	}
	return list, nil
}

func (s *Store) SaveOptionSetting(ctx context.Context, o fieldgame.OptionSetting) error {
	if !o.Kind.Valid() {
		return fieldgame.ErrNotFound
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO option_settings (kind, name, requires_photo, auto_verify, points, cost,
			cooldown_seconds, rule_text, rule_text_default, available_to_players)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind) DO UPDATE SET
			name = excluded.name,
			requires_photo = excluded.requires_photo,
			auto_verify = excluded.auto_verify,
			points = excluded.points,
			cost = excluded.cost,
			cooldown_seconds = excluded.cooldown_seconds,
			rule_text = excluded.rule_text,
			rule_text_default = excluded.rule_text_default,
			available_to_players = excluded.available_to_players
	`, o.Kind, o.Name, boolInt(o.RequiresPhoto), boolInt(o.AutoVerify), o.Points, o.Cost,
		o.CooldownSeconds, o.RuleText, o.RuleTextDefault, boolInt(o.AvailableToPlayers))
	if err != nil {
		return fmt.Errorf("saving %s settings: %w", o.Kind, err)
	}
	return nil
}

// ResetRules restores every rule text to its saved default.
func (s *Store) ResetRules(ctx context.Context) error {
	return s.updateRules(ctx, (*fieldgame.OptionSetting).ResetRule)
}

// SaveRulesAsDefaults stores every current rule text as its default.
func (s *Store) SaveRulesAsDefaults(ctx context.Context) error {
	return s.updateRules(ctx, (*fieldgame.OptionSetting).SaveRuleAsDefault)
}

func (s *Store) updateRules(ctx context.Context, fn func(*fieldgame.OptionSetting)) error {
	return s.InTx(ctx, func(tx *Store) error {
		settings, err := tx.OptionSettings(ctx)
		if err != nil {
			return err
		}
		for _, k := range fieldgame.Kinds() {
			o := settings[k]
			fn(&o)
			if err := tx.SaveOptionSetting(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
}
