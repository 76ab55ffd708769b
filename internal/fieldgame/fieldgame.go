// Package fieldgame defines the core domain types and rules of the field game:
// the scoring engine, the cooldown checker, the verification queue and the
// game clock. It does not talk to the database; lookups over recorded events
// and pending submissions are expressed as small interfaces.
package fieldgame

import "time"

type Team struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Points       int       `json:"points"`
	Bounty       int       `json:"bounty"`
	FalseInfo    bool      `json:"falseInfo"`
	JoinToken    string    `json:"joinToken"`
	NameEditable bool      `json:"nameEditable"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Checkpoint struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Village      string     `json:"village"`
	Points       int        `json:"points"`
	MineCharge   int        `json:"mineCharge"`
	CaptureCount int        `json:"captureCount"`
	LastAction   *time.Time `json:"lastAction,omitempty"`
	SortOrder    int        `json:"sortOrder"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusDenied   Status = "denied"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusDenied:
		return true
	}
	return false
}

type Submission struct {
	ID              string `json:"id"`
	TeamID          string `json:"teamId"`
	TeamName        string `json:"teamName"`
	PlayerSessionID string `json:"playerSessionId,omitempty"`
	Kind            Kind   `json:"kind"`
	CheckpointID    string `json:"checkpointId,omitempty"`
	CheckpointName  string `json:"checkpointName,omitempty"`
	TargetTeamID    string `json:"targetTeamId,omitempty"`
	TargetTeamName  string `json:"targetTeamName,omitempty"`
	Stake           int    `json:"stake"`
	Description     string `json:"description"`
	// PhotoKey names the attached evidence in the photo store.
	PhotoKey       string     `json:"photoKey,omitempty"`
	Status         Status     `json:"status"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy     string     `json:"verifiedBy,omitempty"`
	AdminMessage   string     `json:"adminMessage"`
	QueuedBehindID string     `json:"queuedBehindId,omitempty"`
	QueueReason    string     `json:"queueReason,omitempty"`
}

func (s Submission) HasPhoto() bool { return s.PhotoKey != "" }

// Blocked reports whether the submission is queued behind another one.
func (s Submission) Blocked() bool { return s.QueuedBehindID != "" }

// Event is an immutable ledger entry written when a submission is verified.
// Time is the effective time: the originating submission's submitted_at.
type Event struct {
	ID               string     `json:"id"`
	SubmissionID     string     `json:"submissionId,omitempty"`
	Kind             Kind       `json:"kind"`
	TeamID           string     `json:"teamId"`
	CheckpointID     string     `json:"checkpointId,omitempty"`
	TargetTeamID     string     `json:"targetTeamId,omitempty"`
	Stake            int        `json:"stake"`
	TeamPoints       int        `json:"teamPoints"`
	TargetTeamPoints int        `json:"targetTeamPoints"`
	Description      string     `json:"description"`
	Time             time.Time  `json:"time"`
	HiddenUntil      *time.Time `json:"hiddenUntil,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Scoring reports whether the event changed the acting team's balance.
// Zero-scoring events are rejected attempts and never anchor a cooldown.
func (e Event) Scoring() bool { return e.TeamPoints != 0 }

// VisiblePoints is the balance shown to the team itself. Deductions from
// events targeting the team stay hidden until their HiddenUntil passes, so
// a photographed team cannot tell from its score that it was caught.
func VisiblePoints(team Team, targeted []Event, now time.Time) int {
	points := team.Points
	for _, e := range targeted {
		if e.TargetTeamID != team.ID || e.HiddenUntil == nil {
			continue
		}
		if e.HiddenUntil.After(now) {
			points -= e.TargetTeamPoints
		}
	}
	return points
}
