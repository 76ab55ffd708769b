package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

const eventColumns = `id, submission_id, kind, team_id, checkpoint_id, target_team_id, stake,
	team_points, target_team_points, description, time, hidden_until, created_at`

func scanEvent(row scanner) (fieldgame.Event, error) {
	var e fieldgame.Event
	var submissionID, checkpointID, targetID, hiddenUntil sql.NullString
	var at, createdAt string
	if err := row.Scan(&e.ID, &submissionID, &e.Kind, &e.TeamID, &checkpointID, &targetID, &e.Stake,
		&e.TeamPoints, &e.TargetTeamPoints, &e.Description, &at, &hiddenUntil, &createdAt); err != nil {
		return e, err
	}
	e.SubmissionID = submissionID.String
	e.CheckpointID = checkpointID.String
	e.TargetTeamID = targetID.String

	var err error
	if e.Time, err = parseTime(at); err != nil {
		return e, err
	}
	if e.HiddenUntil, err = parseNullTime(hiddenUntil); err != nil {
		return e, err
	}
	e.CreatedAt, err = parseTime(createdAt)
	return e, err
}

func (s *Store) InsertEvent(ctx context.Context, e *fieldgame.Event) error {
	if e.ID == "" {
		e.ID = newID()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO events (id, submission_id, kind, team_id, checkpoint_id, target_team_id, stake,
			team_points, target_team_points, description, time, hidden_until, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, nullString(e.SubmissionID), e.Kind, e.TeamID, nullString(e.CheckpointID),
		nullString(e.TargetTeamID), e.Stake, e.TeamPoints, e.TargetTeamPoints, e.Description,
		formatTime(e.Time), nullTime(e.HiddenUntil), formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	TeamID string
	Limit  int
}

// ListEvents returns events newest first. With a team filter it returns
// events the team performed or was targeted by.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]fieldgame.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if f.TeamID != "" {
		q += ` WHERE team_id = ? OR target_team_id = ?`
		args = append(args, f.TeamID, f.TeamID)
	}
	q += ` ORDER BY time DESC, created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryEvents(ctx, q, args...)
}

// TargetedEvents returns the events whose deduction against teamID is still
// hidden at now.
func (s *Store) TargetedEvents(ctx context.Context, teamID string, now time.Time) ([]fieldgame.Event, error) {
	return s.queryEvents(ctx, `SELECT `+eventColumns+` FROM events
		WHERE target_team_id = ? AND hidden_until > ?`, teamID, formatTime(now))
}

func (s *Store) queryEvents(ctx context.Context, q string, args ...any) ([]fieldgame.Event, error) {
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []fieldgame.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// HasCaptured implements fieldgame.Ledger.
func (s *Store) HasCaptured(ctx context.Context, teamID, checkpointID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events WHERE kind = ? AND team_id = ? AND checkpoint_id = ?
		)
	`, fieldgame.KindCapture, teamID, checkpointID).Scan(&exists)
	return exists, err
}

// LatestScoringEvent implements fieldgame.Ledger.
func (s *Store) LatestScoringEvent(ctx context.Context, kind fieldgame.Kind, teamID, targetTeamID string, at time.Time) (*fieldgame.Event, error) {
	e, err := scanEvent(s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events
		WHERE kind = ? AND team_id = ? AND target_team_id = ? AND team_points <> 0 AND time <= ?
		ORDER BY time DESC, created_at DESC
		LIMIT 1
	`, kind, teamID, targetTeamID, formatTime(at)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// VisiblePoints returns the balance the team sees itself, with photograph
// deductions still hidden.
func (s *Store) VisiblePoints(ctx context.Context, team fieldgame.Team, now time.Time) (int, error) {
	targeted, err := s.TargetedEvents(ctx, team.ID, now)
	if err != nil {
		return 0, err
	}
	return fieldgame.VisiblePoints(team, targeted, now), nil
}
