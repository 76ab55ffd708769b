package fieldgame

import "time"

const (
	// MaxJoinAttempts is the number of attempts to switch teams after which
	// a session is blocked.
	MaxJoinAttempts = 3
	JoinBlockPeriod = time.Hour

	// ActiveSessionWindow is how long a session counts as active after its
	// last request.
	ActiveSessionWindow = 30 * time.Minute
)

// PlayerSession is a device-bound identity. The first team a device joins
// locks it; later attempts to join another team count as failures.
type PlayerSession struct {
	ID                string     `json:"id"`
	Token             string     `json:"-"`
	DeviceFingerprint string     `json:"-"`
	PlayerName        string     `json:"playerName"`
	TeamID            string     `json:"teamId,omitempty"`
	InitialTeamID     string     `json:"initialTeamId,omitempty"`
	Locked            bool       `json:"locked"`
	FailedAttempts    int        `json:"failedAttempts"`
	BlockedUntil      *time.Time `json:"blockedUntil,omitempty"`
	JoinedAt          *time.Time `json:"joinedAt,omitempty"`
	LastActivityAt    *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (s PlayerSession) Blocked(now time.Time) bool {
	return s.BlockedUntil != nil && now.Before(*s.BlockedUntil)
}

func (s PlayerSession) Active(now time.Time) bool {
	return s.LastActivityAt != nil && now.Sub(*s.LastActivityAt) < ActiveSessionWindow
}

// Join moves the session into teamID. The caller persists the session
// whether or not an error is returned, since failures are counted.
func (s *PlayerSession) Join(teamID string, now time.Time) error {
	if s.Blocked(now) {
		s.FailedAttempts++
		return ErrSessionBlocked
	}

	if s.Locked && s.InitialTeamID != "" && s.InitialTeamID != teamID {
		s.FailedAttempts++
		if s.FailedAttempts >= MaxJoinAttempts {
			until := now.Add(JoinBlockPeriod)
			s.BlockedUntil = &until
		}
		return ErrTeamLocked
	}

	if s.TeamID == "" {
		s.InitialTeamID = teamID
		s.Locked = true
	}
	s.TeamID = teamID
	s.JoinedAt = &now
	s.LastActivityAt = &now
	s.FailedAttempts = 0
	return nil
}

// Unblock clears a temporary block. Used by admins.
func (s *PlayerSession) Unblock() {
	s.BlockedUntil = nil
	s.FailedAttempts = 0
}
