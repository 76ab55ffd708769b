package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

const submissionSelect = `
	SELECT s.id, s.team_id, t.name, s.player_session_id, s.kind,
		s.checkpoint_id, c.name, s.target_team_id, tt.name,
		s.stake, s.description, s.photo_key, s.status, s.submitted_at,
		s.verified_at, s.verified_by, s.admin_message, s.queued_behind_id, s.queue_reason
	FROM submissions s
	JOIN teams t ON t.id = s.team_id
	LEFT JOIN checkpoints c ON c.id = s.checkpoint_id
	LEFT JOIN teams tt ON tt.id = s.target_team_id
`

func scanSubmission(row scanner) (fieldgame.Submission, error) {
	var sub fieldgame.Submission
	var session, checkpointID, checkpointName, targetID, targetName, photo sql.NullString
	var verifiedAt, verifiedBy, queuedBehind sql.NullString
	var submittedAt string
	if err := row.Scan(&sub.ID, &sub.TeamID, &sub.TeamName, &session, &sub.Kind,
		&checkpointID, &checkpointName, &targetID, &targetName,
		&sub.Stake, &sub.Description, &photo, &sub.Status, &submittedAt,
		&verifiedAt, &verifiedBy, &sub.AdminMessage, &queuedBehind, &sub.QueueReason); err != nil {
		return sub, err
	}
	sub.PlayerSessionID = session.String
	sub.CheckpointID = checkpointID.String
	sub.CheckpointName = checkpointName.String
	sub.TargetTeamID = targetID.String
	sub.TargetTeamName = targetName.String
	sub.PhotoKey = photo.String
	sub.VerifiedBy = verifiedBy.String
	sub.QueuedBehindID = queuedBehind.String

	var err error
	if sub.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return sub, err
	}
	sub.VerifiedAt, err = parseNullTime(verifiedAt)
	return sub, err
}

func (s *Store) GetSubmission(ctx context.Context, id string) (fieldgame.Submission, error) {
	sub, err := scanSubmission(s.q.QueryRowContext(ctx, submissionSelect+` WHERE s.id = ?`, id))
	return sub, notFound(err)
}

// SubmissionFilter narrows ListSubmissions. Zero values match everything.
type SubmissionFilter struct {
	Status fieldgame.Status
	TeamID string
	Kind   fieldgame.Kind
	Limit  int
}

// ListSubmissions returns submissions, pending ones oldest first so admins
// work through them in submission order, everything else newest first.
func (s *Store) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]fieldgame.Submission, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "s.status = ?")
		args = append(args, f.Status)
	}
	if f.TeamID != "" {
		where = append(where, "s.team_id = ?")
		args = append(args, f.TeamID)
	}
	if f.Kind != "" {
		where = append(where, "s.kind = ?")
		args = append(args, f.Kind)
	}

	q := submissionSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Status == fieldgame.StatusPending {
		q += " ORDER BY s.submitted_at ASC, s.id"
	} else {
		q += " ORDER BY s.submitted_at DESC, s.id"
	}
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	subs := []fieldgame.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// InsertSubmission stores a new pending submission. A second pending claim
// for the same team, kind and checkpoint fails with a ValidationError.
func (s *Store) InsertSubmission(ctx context.Context, sub *fieldgame.Submission) error {
	if sub.ID == "" {
		sub.ID = newID()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO submissions (id, team_id, player_session_id, kind, checkpoint_id, target_team_id,
			stake, description, photo_key, status, submitted_at, queued_behind_id, queue_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.TeamID, nullString(sub.PlayerSessionID), sub.Kind, nullString(sub.CheckpointID),
		nullString(sub.TargetTeamID), sub.Stake, sub.Description, nullString(sub.PhotoKey), sub.Status,
		formatTime(sub.SubmittedAt), nullString(sub.QueuedBehindID), sub.QueueReason)
	if isUniqueViolation(err) {
		return fieldError("kind", "already has a pending submission for this team")
	}
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

// ResolveSubmission moves a pending submission to its terminal status. It
// returns ErrStateConflict when the submission is no longer pending, which
// makes each submission resolvable exactly once.
func (s *Store) ResolveSubmission(ctx context.Context, id string, status fieldgame.Status, adminID, message string, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE submissions
		SET status = ?, verified_at = ?, verified_by = ?, admin_message = ?,
			queued_behind_id = NULL, queue_reason = ''
		WHERE id = ? AND status = 'pending'
	`, status, formatTime(at), nullString(adminID), message, id)
	if err != nil {
		return fmt.Errorf("resolving submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fieldgame.ErrStateConflict
	}
	return nil
}

// ReleaseQueued clears the queue reference of every pending submission
// waiting behind blockerID and returns the released submissions.
func (s *Store) ReleaseQueued(ctx context.Context, blockerID string) ([]fieldgame.Submission, error) {
	rows, err := s.q.QueryContext(ctx, `
		UPDATE submissions SET queued_behind_id = NULL, queue_reason = ''
		WHERE queued_behind_id = ? AND status = 'pending'
		RETURNING id
	`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("releasing queue: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	released := make([]fieldgame.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.GetSubmission(ctx, id)
		if err != nil {
			return nil, err
		}
		released = append(released, sub)
	}
	return released, nil
}

// EarliestPending implements fieldgame.PendingFinder.
func (s *Store) EarliestPending(ctx context.Context, kind fieldgame.Kind, teamID, targetTeamID string, before time.Time) (*fieldgame.Submission, error) {
	sub, err := scanSubmission(s.q.QueryRowContext(ctx, submissionSelect+`
		WHERE s.kind = ? AND s.team_id = ? AND s.target_team_id = ?
			AND s.status = 'pending' AND s.submitted_at < ?
		ORDER BY s.submitted_at ASC, s.id
		LIMIT 1
	`, kind, teamID, targetTeamID, formatTime(before)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) SetPhotoKey(ctx context.Context, id, key string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE submissions SET photo_key = ? WHERE id = ?`, nullString(key), id)
	return affectedOne(res, err)
}

// PhotoRef points at the photo evidence of a submission.
type PhotoRef struct {
	SubmissionID string
	Key          string
}

// ResolvedPhotos lists the photos of submissions that are no longer
// pending. Pending evidence is still needed for verification.
func (s *Store) ResolvedPhotos(ctx context.Context) ([]PhotoRef, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, photo_key FROM submissions
		WHERE photo_key IS NOT NULL AND status <> 'pending'
		ORDER BY submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	var refs []PhotoRef
	for rows.Next() {
		var ref PhotoRef
		if err := rows.Scan(&ref.SubmissionID, &ref.Key); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
