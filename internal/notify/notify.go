// Package notify delivers real-time notifications to admin dashboards and
// player devices. Delivery is best effort: callers log failures and move on.
package notify

import "context"

// Message types.
const (
	TypeSubmissionCreated  = "submission_created"
	TypeSubmissionResolved = "submission_resolved"
	TypeQueueReleased      = "queue_released"
	TypePointsUpdated      = "points_updated"
	TypePlayerJoined       = "player_joined"
)

// Channel names.
const ChannelAdmin = "admin"

func TeamChannel(teamID string) string { return "team:" + teamID }

func PlayerChannel(sessionID string) string { return "player:" + sessionID }

// Message is the JSON envelope sent to subscribers.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Notifier publishes a message on a channel.
type Notifier interface {
	Notify(ctx context.Context, channel string, msg Message) error
}
