package store

import (
	"context"
	"fmt"
)

// Reset names one of the bulk admin resets.
type Reset string

const (
	ResetMines         Reset = "mines"
	ResetCaptureCounts Reset = "capture-counts"
	ResetPoints        Reset = "points"
	ResetBounties      Reset = "bounties"
	ResetEvents        Reset = "events"
	ResetSubmissions   Reset = "submissions"
	ResetTeams         Reset = "teams"
)

var resetStatements = map[Reset][]string{
	ResetMines:         {`UPDATE checkpoints SET mine_charge = 0`},
	ResetCaptureCounts: {`UPDATE checkpoints SET capture_count = 0, last_action = NULL`},
	ResetPoints:        {`UPDATE teams SET points = 0`},
	ResetBounties:      {`UPDATE teams SET bounty = 0`},
	ResetEvents:        {`DELETE FROM events`},
	ResetSubmissions:   {`DELETE FROM events`, `DELETE FROM submissions`},
	ResetTeams:         {`DELETE FROM events`, `DELETE FROM submissions`, `DELETE FROM player_sessions`, `DELETE FROM teams`},
}

// Resets lists the known resets.
func Resets() []Reset {
	return []Reset{ResetMines, ResetCaptureCounts, ResetPoints, ResetBounties, ResetEvents, ResetSubmissions, ResetTeams}
}

// ApplyReset runs a bulk reset and returns the number of rows touched by
// its last statement.
func (s *Store) ApplyReset(ctx context.Context, r Reset) (int64, error) {
	stmts, ok := resetStatements[r]
	if !ok {
		return 0, fmt.Errorf("unknown reset %q", r)
	}

	var n int64
	err := s.InTx(ctx, func(tx *Store) error {
		for _, stmt := range stmts {
			res, err := tx.q.ExecContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("reset %s: %w", r, err)
			}
			if n, err = res.RowsAffected(); err != nil {
				return err
			}
		}
		return nil
	})
	return n, err
}
