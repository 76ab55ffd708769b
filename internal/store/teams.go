package store

import (
	"context"
	"fmt"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

const teamColumns = `id, name, points, bounty, false_info, join_token, name_editable, sort_order, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTeam(row scanner) (fieldgame.Team, error) {
	var t fieldgame.Team
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &t.Points, &t.Bounty, &t.FalseInfo, &t.JoinToken,
		&t.NameEditable, &t.SortOrder, &createdAt); err != nil {
		return t, err
	}
	var err error
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

func (s *Store) ListTeams(ctx context.Context) ([]fieldgame.Team, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []fieldgame.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *Store) GetTeam(ctx context.Context, id string) (fieldgame.Team, error) {
	t, err := scanTeam(s.q.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ?`, id))
	return t, notFound(err)
}

func (s *Store) TeamByJoinToken(ctx context.Context, token string) (fieldgame.Team, error) {
	t, err := scanTeam(s.q.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE join_token = ?`, token))
	return t, notFound(err)
}

// TeamInput holds the admin-editable team fields.
type TeamInput struct {
	Name         string `json:"name"`
	NameEditable bool   `json:"nameEditable"`
	SortOrder    int    `json:"sortOrder"`
}

func (s *Store) CreateTeam(ctx context.Context, in TeamInput, now time.Time) (fieldgame.Team, error) {
	t := fieldgame.Team{
		ID:           newID(),
		Name:         in.Name,
		JoinToken:    newToken(12),
		NameEditable: in.NameEditable,
		SortOrder:    in.SortOrder,
		CreatedAt:    now,
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO teams (id, name, join_token, name_editable, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.JoinToken, boolInt(t.NameEditable), t.SortOrder, formatTime(now))
	if isUniqueViolation(err) {
		return t, fieldError("name", "has already been taken")
	}
	if err != nil {
		return t, fmt.Errorf("creating team: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTeam(ctx context.Context, id string, in TeamInput) (fieldgame.Team, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE teams SET name = ?, name_editable = ?, sort_order = ? WHERE id = ?
	`, in.Name, boolInt(in.NameEditable), in.SortOrder, id)
	if isUniqueViolation(err) {
		return fieldgame.Team{}, fieldError("name", "has already been taken")
	}
	if err := affectedOne(res, err); err != nil {
		return fieldgame.Team{}, err
	}
	return s.GetTeam(ctx, id)
}

// RenameTeam changes the name of a team whose name is player editable.
func (s *Store) RenameTeam(ctx context.Context, id, name string) (fieldgame.Team, error) {
	t, err := s.GetTeam(ctx, id)
	if err != nil {
		return t, err
	}
	if !t.NameEditable {
		return t, fieldError("name", "cannot be changed")
	}
	return s.UpdateTeam(ctx, id, TeamInput{Name: name, NameEditable: true, SortOrder: t.SortOrder})
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	return affectedOne(res, err)
}

// RegenerateJoinToken replaces the join secret, locking out devices that
// have not joined yet.
func (s *Store) RegenerateJoinToken(ctx context.Context, id string) (fieldgame.Team, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE teams SET join_token = ? WHERE id = ?`, newToken(12), id)
	if err := affectedOne(res, err); err != nil {
		return fieldgame.Team{}, err
	}
	return s.GetTeam(ctx, id)
}

// SaveTeamState writes the scoring-owned fields of a team.
func (s *Store) SaveTeamState(ctx context.Context, t fieldgame.Team) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE teams SET points = ?, bounty = ?, false_info = ? WHERE id = ?
	`, t.Points, t.Bounty, boolInt(t.FalseInfo), t.ID)
	return affectedOne(res, err)
}
