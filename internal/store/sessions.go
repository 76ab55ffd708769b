package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

const sessionColumns = `id, token, device_fingerprint, player_name, team_id, initial_team_id, locked,
	failed_attempts, blocked_until, joined_at, last_activity_at, created_at`

func scanSession(row scanner) (fieldgame.PlayerSession, error) {
	var ps fieldgame.PlayerSession
	var teamID, initialTeamID, blockedUntil, joinedAt, lastActivity sql.NullString
	var createdAt string
	if err := row.Scan(&ps.ID, &ps.Token, &ps.DeviceFingerprint, &ps.PlayerName, &teamID, &initialTeamID,
		&ps.Locked, &ps.FailedAttempts, &blockedUntil, &joinedAt, &lastActivity, &createdAt); err != nil {
		return ps, err
	}
	ps.TeamID = teamID.String
	ps.InitialTeamID = initialTeamID.String

	var err error
	if ps.BlockedUntil, err = parseNullTime(blockedUntil); err != nil {
		return ps, err
	}
	if ps.JoinedAt, err = parseNullTime(joinedAt); err != nil {
		return ps, err
	}
	if ps.LastActivityAt, err = parseNullTime(lastActivity); err != nil {
		return ps, err
	}
	ps.CreatedAt, err = parseTime(createdAt)
	return ps, err
}

func (s *Store) GetSession(ctx context.Context, id string) (fieldgame.PlayerSession, error) {
	ps, err := scanSession(s.q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM player_sessions WHERE id = ?`, id))
	return ps, notFound(err)
}

func (s *Store) SessionByToken(ctx context.Context, token string) (fieldgame.PlayerSession, error) {
	ps, err := scanSession(s.q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM player_sessions WHERE token = ?`, token))
	return ps, notFound(err)
}

// SessionForDevice returns the session bound to the device fingerprint,
// creating it on first contact.
func (s *Store) SessionForDevice(ctx context.Context, fingerprint, playerName string, now time.Time) (fieldgame.PlayerSession, error) {
	ps, err := scanSession(s.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM player_sessions WHERE device_fingerprint = ?`, fingerprint))
	if err == nil {
		return ps, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ps, fmt.Errorf("looking up session: %w", err)
	}

	ps = fieldgame.PlayerSession{
		ID:                newID(),
		Token:             newToken(32),
		DeviceFingerprint: fingerprint,
		PlayerName:        playerName,
		LastActivityAt:    &now,
		CreatedAt:         now,
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO player_sessions (id, token, device_fingerprint, player_name, last_activity_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ps.ID, ps.Token, ps.DeviceFingerprint, ps.PlayerName, formatTime(now), formatTime(now))
	if err != nil {
		return ps, fmt.Errorf("creating session: %w", err)
	}
	return ps, nil
}

// SaveSession writes the mutable fields of a session.
func (s *Store) SaveSession(ctx context.Context, ps fieldgame.PlayerSession) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE player_sessions SET player_name = ?, team_id = ?, initial_team_id = ?, locked = ?,
			failed_attempts = ?, blocked_until = ?, joined_at = ?, last_activity_at = ?
		WHERE id = ?
	`, ps.PlayerName, nullString(ps.TeamID), nullString(ps.InitialTeamID), boolInt(ps.Locked),
		ps.FailedAttempts, nullTime(ps.BlockedUntil), nullTime(ps.JoinedAt), nullTime(ps.LastActivityAt), ps.ID)
	return affectedOne(res, err)
}

func (s *Store) TouchSession(ctx context.Context, id string, now time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE player_sessions SET last_activity_at = ? WHERE id = ?`, formatTime(now), id)
	return affectedOne(res, err)
}

func (s *Store) ListSessions(ctx context.Context) ([]fieldgame.PlayerSession, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+sessionColumns+` FROM player_sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []fieldgame.PlayerSession{}
	for rows.Next() {
		ps, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, ps)
	}
	return sessions, rows.Err()
}

// JoinTeam binds the device session to the team behind joinToken. Failed
// attempts are persisted before the error is returned.
func (s *Store) JoinTeam(ctx context.Context, sessionID, joinToken string, now time.Time) (fieldgame.PlayerSession, fieldgame.Team, error) {
	var ps fieldgame.PlayerSession
	var team fieldgame.Team
	var joinErr error
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		if team, err = tx.TeamByJoinToken(ctx, joinToken); err != nil {
			return err
		}
		if ps, err = tx.GetSession(ctx, sessionID); err != nil {
			return err
		}
		joinErr = ps.Join(team.ID, now)
		return tx.SaveSession(ctx, ps)
	})
	if err != nil {
		return ps, team, err
	}
	return ps, team, joinErr
}

func (s *Store) UnblockSession(ctx context.Context, id string) (fieldgame.PlayerSession, error) {
	var ps fieldgame.PlayerSession
	err := s.InTx(ctx, func(tx *Store) error {
		var err error
		if ps, err = tx.GetSession(ctx, id); err != nil {
			return err
		}
		ps.Unblock()
		return tx.SaveSession(ctx, ps)
	})
	return ps, err
}
