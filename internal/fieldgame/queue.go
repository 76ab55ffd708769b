package fieldgame

import (
	"context"
	"fmt"
	"time"
)

// PendingFinder looks up pending submissions for the queue manager.
type PendingFinder interface {
	// EarliestPending returns the earliest pending submission of kind made by
	// teamID against targetTeamID and submitted strictly before before, or
	// nil when there is none. TeamName must be filled in.
	EarliestPending(ctx context.Context, kind Kind, teamID, targetTeamID string, before time.Time) (*Submission, error)
}

// QueueStatus tells whether a submission waits for another one to be
// resolved first.
type QueueStatus struct {
	Blocked    bool   `json:"blocked"`
	BlockingID string `json:"blockingId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Queue returns the stored queue state of the submission.
func (s Submission) Queue() QueueStatus {
	return QueueStatus{
		Blocked:    s.QueuedBehindID != "",
		BlockingID: s.QueuedBehindID,
		Reason:     s.QueueReason,
	}
}

// queuedBehind maps a kind to the kind it may have to wait for. A notice
// depends on the photograph it refers to; a photograph waits for an earlier
// notice from its target so both are resolved in submission order.
var queuedBehind = map[Kind]struct {
	kind   Kind
	reason string
}{
	KindNotice:     {KindPhotograph, "waiting for photo verification of %s"},
	KindPhotograph: {KindNotice, "waiting for 'noticed photograph' of %s"},
}

// CheckQueue decides whether sub has to wait behind an earlier pending
// submission. The blocker is the earliest pending submission of the
// dependent kind made by sub's target team against sub's team.
func CheckQueue(ctx context.Context, finder PendingFinder, sub Submission) (QueueStatus, error) {
	dep, ok := queuedBehind[sub.Kind]
	if !ok || sub.TargetTeamID == "" {
		return QueueStatus{}, nil
	}

	blocker, err := finder.EarliestPending(ctx, dep.kind, sub.TargetTeamID, sub.TeamID, sub.SubmittedAt)
	if err != nil {
		return QueueStatus{}, fmt.Errorf("checking queue: %w", err)
	}
	if blocker == nil || blocker.ID == sub.ID {
		return QueueStatus{}, nil
	}

	return QueueStatus{
		Blocked:    true,
		BlockingID: blocker.ID,
		Reason:     fmt.Sprintf(dep.reason, blocker.TeamName),
	}, nil
}
