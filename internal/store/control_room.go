package store

import (
	"context"
	"fmt"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
)

// ControlRoom is the admin dashboard summary.
type ControlRoom struct {
	NextPending   *fieldgame.Submission `json:"nextPending,omitempty"`
	PendingCount  int                   `json:"pendingCount"`
	VerifiedToday int                   `json:"verifiedToday"`
	DeniedToday   int                   `json:"deniedToday"`
	Teams         []fieldgame.Team      `json:"teams"`
	RecentEvents  []fieldgame.Event     `json:"recentEvents"`
	NextEndTime   *time.Time            `json:"nextEndTime,omitempty"`
	GameActive    bool                  `json:"gameActive"`
}

// ControlRoom collects the dashboard summary. Resolved counts cover
// submissions made since dayStart.
func (s *Store) ControlRoom(ctx context.Context, now, dayStart time.Time) (ControlRoom, error) {
	var cr ControlRoom

	pending, err := s.ListSubmissions(ctx, SubmissionFilter{Status: fieldgame.StatusPending, Limit: 1})
	if err != nil {
		return cr, err
	}
	if len(pending) > 0 {
		cr.NextPending = &pending[0]
	}

	err = s.q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(status = 'pending'), 0),
			COALESCE(SUM(status = 'verified' AND submitted_at >= ?), 0),
			COALESCE(SUM(status = 'denied' AND submitted_at >= ?), 0)
		FROM submissions
	`, formatTime(dayStart), formatTime(dayStart)).Scan(&cr.PendingCount, &cr.VerifiedToday, &cr.DeniedToday)
	if err != nil {
		return cr, fmt.Errorf("counting submissions: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY points DESC, name`)
	if err != nil {
		return cr, fmt.Errorf("ranking teams: %w", err)
	}
	cr.Teams = []fieldgame.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return cr, fmt.Errorf("scanning team: %w", err)
		}
		cr.Teams = append(cr.Teams, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return cr, err
	}

	if cr.RecentEvents, err = s.ListEvents(ctx, EventFilter{Limit: 10}); err != nil {
		return cr, err
	}

	clock, err := s.LoadClock(ctx)
	if err != nil {
		return cr, err
	}
	cr.NextEndTime = clock.NextEnd(now)
	cr.GameActive = clock.IsActive(now)
	return cr, nil
}
