package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

const checkpointColumns = `id, name, description, village, points, mine_charge, capture_count, last_action, sort_order, created_at`

func scanCheckpoint(row scanner) (fieldgame.Checkpoint, error) {
	var c fieldgame.Checkpoint
	var lastAction sql.NullString
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Village, &c.Points, &c.MineCharge,
		&c.CaptureCount, &lastAction, &c.SortOrder, &createdAt); err != nil {
		return c, err
	}
	var err error
	if c.LastAction, err = parseNullTime(lastAction); err != nil {
		return c, err
	}
	c.CreatedAt, err = parseTime(createdAt)
	return c, err
}

func (s *Store) ListCheckpoints(ctx context.Context) ([]fieldgame.Checkpoint, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+checkpointColumns+` FROM checkpoints ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	checkpoints := []fieldgame.Checkpoint{}
	for rows.Next() {
		c, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, c)
	}
	return checkpoints, rows.Err()
}

func (s *Store) GetCheckpoint(ctx context.Context, id string) (fieldgame.Checkpoint, error) {
	c, err := scanCheckpoint(s.q.QueryRowContext(ctx, `SELECT `+checkpointColumns+` FROM checkpoints WHERE id = ?`, id))
	return c, notFound(err)
}

// CheckpointInput holds the admin-editable checkpoint fields.
type CheckpointInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Village     string `json:"village"`
	Points      int    `json:"points"`
	SortOrder   int    `json:"sortOrder"`
}

func (s *Store) CreateCheckpoint(ctx context.Context, in CheckpointInput, now time.Time) (fieldgame.Checkpoint, error) {
	c := fieldgame.Checkpoint{
		ID:          newID(),
		Name:        in.Name,
		Description: in.Description,
		Village:     in.Village,
		Points:      in.Points,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO checkpoints (id, name, description, village, points, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Description, c.Village, c.Points, c.SortOrder, formatTime(now))
	if isUniqueViolation(err) {
		return c, fieldError("name", "has already been taken")
	}
	if err != nil {
		return c, fmt.Errorf("creating checkpoint: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCheckpoint(ctx context.Context, id string, in CheckpointInput) (fieldgame.Checkpoint, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE checkpoints SET name = ?, description = ?, village = ?, points = ?, sort_order = ?
		WHERE id = ?
	`, in.Name, in.Description, in.Village, in.Points, in.SortOrder, id)
	if isUniqueViolation(err) {
		return fieldgame.Checkpoint{}, fieldError("name", "has already been taken")
	}
	if err := affectedOne(res, err); err != nil {
		return fieldgame.Checkpoint{}, err
	}
	return s.GetCheckpoint(ctx, id)
}

func (s *Store) DeleteCheckpoint(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, id)
	return affectedOne(res, err)
}

// SaveCheckpointState writes the scoring-owned fields of a checkpoint.
func (s *Store) SaveCheckpointState(ctx context.Context, c fieldgame.Checkpoint) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE checkpoints SET mine_charge = ?, capture_count = ?, last_action = ? WHERE id = ?
	`, c.MineCharge, c.CaptureCount, nullTime(c.LastAction), c.ID)
	return affectedOne(res, err)
}
