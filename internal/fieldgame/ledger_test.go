package fieldgame

import (
	"context"
	"time"
)

// memLedger is an in-memory Ledger and PendingFinder for tests.
type memLedger struct {
	events  []Event
	pending []Submission
}

func (l *memLedger) HasCaptured(_ context.Context, teamID, checkpointID string) (bool, error) {
	for _, e := range l.events {
		if e.Kind == KindCapture && e.TeamID == teamID && e.CheckpointID == checkpointID {
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) LatestScoringEvent(_ context.Context, kind Kind, teamID, targetTeamID string, at time.Time) (*Event, error) {
	var latest *Event
	for i := range l.events {
		e := l.events[i]
		if e.Kind != kind || e.TeamID != teamID || e.TargetTeamID != targetTeamID {
			continue
		}
		if !e.Scoring() || e.Time.After(at) {
			continue
		}
		if latest == nil || e.Time.After(latest.Time) {
			latest = &e
		}
	}
	return latest, nil
}

func (l *memLedger) EarliestPending(_ context.Context, kind Kind, teamID, targetTeamID string, before time.Time) (*Submission, error) {
	var earliest *Submission
	for i := range l.pending {
		s := l.pending[i]
		if s.Kind != kind || s.TeamID != teamID || s.TargetTeamID != targetTeamID {
			continue
		}
		if s.Status != StatusPending || !s.SubmittedAt.Before(before) {
			continue
		}
		if earliest == nil || s.SubmittedAt.Before(earliest.SubmittedAt) {
			earliest = &s
		}
	}
	return earliest, nil
}

func (l *memLedger) record(a Action, o Outcome) {
	e := Event{
		Kind:             a.Kind,
		TeamID:           a.Actor.ID,
		TeamPoints:       o.ActorDelta,
		TargetTeamPoints: o.TargetDelta,
		Description:      o.Description,
		Time:             a.At,
		HiddenUntil:      o.HiddenUntil,
	}
	if a.Target != nil {
		e.TargetTeamID = a.Target.ID
	}
	if a.Checkpoint != nil {
		e.CheckpointID = a.Checkpoint.ID
	}
	l.events = append(l.events, e)
}
