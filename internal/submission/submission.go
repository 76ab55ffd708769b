// Package submission implements the claim lifecycle: creation with its
// validation gates, admin verification with scoring, denial and queue
// release.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/notify"
	"github.com/playperu/fieldgame/internal/store"
)

const (
	// DefaultDenyMessage is stored when an admin denies without a message.
	DefaultDenyMessage = "denied"
	AutoVerifyMessage  = "automatically verified"

	notifyTimeout = 2 * time.Second
)

// PhotoChecker tells whether photo evidence is stored under a key.
type PhotoChecker interface {
	Attached(key string) bool
}

type Service struct {
	store        *store.Store
	photos       PhotoChecker
	notifier     notify.Notifier
	logger       *slog.Logger
	now          func() time.Time
	enforceQueue bool
}

type Options struct {
	// EnforceQueue rejects verification of a submission that is still
	// queued behind another one.
	EnforceQueue bool
	Now          func() time.Time
}

func NewService(st *store.Store, photos PhotoChecker, n notify.Notifier, logger *slog.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        st,
		photos:       photos,
		notifier:     n,
		logger:       logger,
		now:          now,
		enforceQueue: opts.EnforceQueue,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// CreateInput is a claim as submitted by a player.
type CreateInput struct {
	// ID is optional. Callers that store the photo before creating the
	// submission pick the ID up front.
	ID              string
	TeamID          string
	PlayerSessionID string
	Kind            fieldgame.Kind
	CheckpointID    string
	TargetTeamID    string
	Stake           int
	Description     string
	PhotoKey        string
	Status          fieldgame.Status
}

type CreateResult struct {
	Submission   fieldgame.Submission
	AutoVerified bool
	Event        *fieldgame.Event
}

// Create validates and stores a new pending submission stamped with the
// current time. Kinds configured to auto-verify are verified right away
// unless they are queued.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	now := s.clock()
	if in.Status == "" {
		in.Status = fieldgame.StatusPending
	}

	settings, err := s.store.OptionSettings(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	clock, err := s.store.LoadClock(ctx)
	if err != nil {
		return CreateResult{}, err
	}

	setting := settings[in.Kind]
	if err := s.validate(ctx, in, now, setting, clock); err != nil {
		return CreateResult{}, err
	}

	sub := fieldgame.Submission{
		ID:              in.ID,
		TeamID:          in.TeamID,
		PlayerSessionID: in.PlayerSessionID,
		Kind:            in.Kind,
		CheckpointID:    in.CheckpointID,
		TargetTeamID:    in.TargetTeamID,
		Stake:           in.Stake,
		Description:     in.Description,
		PhotoKey:        in.PhotoKey,
		Status:          fieldgame.StatusPending,
		SubmittedAt:     now,
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		q, err := fieldgame.CheckQueue(ctx, tx, sub)
		if err != nil {
			return err
		}
		sub.QueuedBehindID = q.BlockingID
		sub.QueueReason = q.Reason
		if err := tx.InsertSubmission(ctx, &sub); err != nil {
			return err
		}
		sub, err = tx.GetSubmission(ctx, sub.ID)
		return err
	})
	if err != nil {
		return CreateResult{}, err
	}

	s.logger.Info("submission created",
		"submission_id", sub.ID, "team_id", sub.TeamID, "kind", sub.Kind, "queued_behind", sub.QueuedBehindID)
	s.notify(ctx, notify.ChannelAdmin, notify.Message{Type: notify.TypeSubmissionCreated, Payload: sub})

	res := CreateResult{Submission: sub}
	if !setting.AutoVerify || setting.RequiresPhoto || sub.Blocked() {
		return res, nil
	}

	ev, err := s.Verify(ctx, sub.ID, "", AutoVerifyMessage)
	if err != nil {
		// The claim stays pending for an admin.
		s.logger.Error("auto verification failed", "submission_id", sub.ID, "error", err)
		return res, nil
	}
	if res.Submission, err = s.store.GetSubmission(ctx, sub.ID); err != nil {
		return res, err
	}
	res.AutoVerified = true
	res.Event = &ev
	return res, nil
}

func (s *Service) validate(ctx context.Context, in CreateInput, at time.Time, setting fieldgame.OptionSetting, clock fieldgame.GameClock) error {
	var v fieldgame.ValidationError

	if !in.Status.Valid() {
		v.Add("status", "is not included in the list")
	} else if in.Status != fieldgame.StatusPending {
		v.Add("status", "must be pending")
	}
	if !in.Kind.Valid() {
		v.Add("kind", "is not included in the list")
		return &v
	}
	if !setting.AvailableToPlayers {
		v.Add("kind", "is not available")
	}

	if _, err := s.store.GetTeam(ctx, in.TeamID); errors.Is(err, fieldgame.ErrNotFound) {
		v.Add("team", "must exist")
	} else if err != nil {
		return err
	}

	req := in.Kind.Requirements()
	if req.Checkpoint {
		if in.CheckpointID == "" {
			v.Add("checkpoint", "can't be blank")
		} else if _, err := s.store.GetCheckpoint(ctx, in.CheckpointID); errors.Is(err, fieldgame.ErrNotFound) {
			v.Add("checkpoint", "must exist")
		} else if err != nil {
			return err
		}
	}
	if req.TargetTeam {
		if in.TargetTeamID == "" {
			v.Add("target_team", "can't be blank")
		} else if _, err := s.store.GetTeam(ctx, in.TargetTeamID); errors.Is(err, fieldgame.ErrNotFound) {
			v.Add("target_team", "must exist")
		} else if err != nil {
			return err
		}
	}
	if req.Stake && in.Stake <= 0 {
		v.Add("stake", "must be greater than 0")
	}

	if in.Kind.HasCooldown() && in.TargetTeamID != "" {
		res, err := fieldgame.CheckCooldown(ctx, s.store, in.Kind, in.TeamID, in.TargetTeamID, setting, at)
		if err != nil {
			return err
		}
		if !res.Allowed {
			v.Add(fieldgame.BaseField, res.Reason)
		}
	}

	if !clock.IsActive(at) {
		v.Add(fieldgame.BaseField, "the game is not running")
	}

	if setting.RequiresPhoto && (in.PhotoKey == "" || !s.photos.Attached(in.PhotoKey)) {
		v.Add("photo", "is required for this kind")
	}

	if v.Empty() {
		return nil
	}
	return &v
}

// Verify resolves a pending submission as verified. Scoring, the event,
// the team and checkpoint updates, and the queue release commit together
// or not at all.
func (s *Service) Verify(ctx context.Context, id, adminID, message string) (fieldgame.Event, error) {
	now := s.clock()

	var (
		sub      fieldgame.Submission
		ev       fieldgame.Event
		released []fieldgame.Submission
	)
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		if sub, err = tx.GetSubmission(ctx, id); err != nil {
			return err
		}
		if sub.Status != fieldgame.StatusPending {
			return fieldgame.ErrStateConflict
		}
		if s.enforceQueue && sub.Blocked() {
			return fmt.Errorf("%w: %s", fieldgame.ErrBlocked, sub.QueueReason)
		}
		if err := tx.ResolveSubmission(ctx, id, fieldgame.StatusVerified, adminID, message, now); err != nil {
			return err
		}

		if ev, err = score(ctx, tx, sub, now); err != nil {
			return err
		}
		released, err = tx.ReleaseQueued(ctx, id)
		return err
	})
	if err != nil {
		return fieldgame.Event{}, err
	}

	s.logger.Info("submission verified",
		"submission_id", id, "admin_id", adminID, "team_points", ev.TeamPoints, "target_team_points", ev.TargetTeamPoints)
	s.afterResolve(ctx, id, released)
	s.notifyPoints(ctx, ev)
	return ev, nil
}

// score runs the scoring engine for sub inside tx and persists its effects.
func score(ctx context.Context, tx *store.Store, sub fieldgame.Submission, now time.Time) (fieldgame.Event, error) {
	settings, err := tx.OptionSettings(ctx)
	if err != nil {
		return fieldgame.Event{}, err
	}
	clock, err := tx.LoadClock(ctx)
	if err != nil {
		return fieldgame.Event{}, err
	}

	actor, err := tx.GetTeam(ctx, sub.TeamID)
	if errors.Is(err, fieldgame.ErrNotFound) {
		return fieldgame.Event{}, &fieldgame.ScoringInvariantError{Kind: sub.Kind, Missing: "team"}
	}
	if err != nil {
		return fieldgame.Event{}, err
	}

	var target *fieldgame.Team
	if sub.TargetTeamID != "" {
		if sub.TargetTeamID == actor.ID {
			target = &actor
		} else {
			t, err := tx.GetTeam(ctx, sub.TargetTeamID)
			if errors.Is(err, fieldgame.ErrNotFound) {
				return fieldgame.Event{}, &fieldgame.ScoringInvariantError{Kind: sub.Kind, Missing: "target team"}
			}
			if err != nil {
				return fieldgame.Event{}, err
			}
			target = &t
		}
	}

	var cp *fieldgame.Checkpoint
	if sub.CheckpointID != "" {
		c, err := tx.GetCheckpoint(ctx, sub.CheckpointID)
		if errors.Is(err, fieldgame.ErrNotFound) {
			return fieldgame.Event{}, &fieldgame.ScoringInvariantError{Kind: sub.Kind, Missing: "checkpoint"}
		}
		if err != nil {
			return fieldgame.Event{}, err
		}
		cp = &c
	}

	outcome, err := fieldgame.Score(ctx, tx, fieldgame.Action{
		Kind:       sub.Kind,
		Actor:      &actor,
		Target:     target,
		Checkpoint: cp,
		Stake:      sub.Stake,
		At:         sub.SubmittedAt,
		Multiplier: clock.Multiplier,
		Settings:   settings,
	})
	if err != nil {
		return fieldgame.Event{}, err
	}
	outcome.Apply(&actor, target, cp, sub.SubmittedAt)

	ev := fieldgame.Event{
		SubmissionID:     sub.ID,
		Kind:             sub.Kind,
		TeamID:           sub.TeamID,
		CheckpointID:     sub.CheckpointID,
		TargetTeamID:     sub.TargetTeamID,
		Stake:            sub.Stake,
		TeamPoints:       outcome.ActorDelta,
		TargetTeamPoints: outcome.TargetDelta,
		Description:      outcome.Description,
		Time:             sub.SubmittedAt,
		HiddenUntil:      outcome.HiddenUntil,
		CreatedAt:        now,
	}
	if err := tx.InsertEvent(ctx, &ev); err != nil {
		return ev, err
	}

	if err := tx.SaveTeamState(ctx, actor); err != nil {
		return ev, fmt.Errorf("saving team: %w", err)
	}
	if target != nil && target != &actor {
		if err := tx.SaveTeamState(ctx, *target); err != nil {
			return ev, fmt.Errorf("saving target team: %w", err)
		}
	}
	if cp != nil {
		if err := tx.SaveCheckpointState(ctx, *cp); err != nil {
			return ev, fmt.Errorf("saving checkpoint: %w", err)
		}
	}
	return ev, nil
}

// Deny resolves a pending submission as denied. No event is written.
// Queued submissions cannot be denied while the queue is enforced.
func (s *Service) Deny(ctx context.Context, id, adminID, message string) (fieldgame.Submission, error) {
	if message == "" {
		message = DefaultDenyMessage
	}
	now := s.clock()

	var (
		sub      fieldgame.Submission
		released []fieldgame.Submission
	)
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		var err error
		if sub, err = tx.GetSubmission(ctx, id); err != nil {
			return err
		}
		if sub.Status != fieldgame.StatusPending {
			return fieldgame.ErrStateConflict
		}
		if s.enforceQueue && sub.Blocked() {
			return fmt.Errorf("%w: %s", fieldgame.ErrBlocked, sub.QueueReason)
		}
		if err := tx.ResolveSubmission(ctx, id, fieldgame.StatusDenied, adminID, message, now); err != nil {
			return err
		}
		if released, err = tx.ReleaseQueued(ctx, id); err != nil {
			return err
		}
		sub, err = tx.GetSubmission(ctx, id)
		return err
	})
	if err != nil {
		return sub, err
	}

	s.logger.Info("submission denied", "submission_id", id, "admin_id", adminID)
	s.afterResolve(ctx, id, released)
	return sub, nil
}

// QueueStatus reports whether the submission waits for another one.
func (s *Service) QueueStatus(ctx context.Context, id string) (fieldgame.QueueStatus, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return fieldgame.QueueStatus{}, err
	}
	return sub.Queue(), nil
}

func (s *Service) afterResolve(ctx context.Context, id string, released []fieldgame.Submission) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		s.logger.Warn("loading resolved submission", "submission_id", id, "error", err)
		return
	}

	msg := notify.Message{Type: notify.TypeSubmissionResolved, Payload: sub}
	s.notify(ctx, notify.ChannelAdmin, msg)
	s.notify(ctx, notify.TeamChannel(sub.TeamID), msg)
	if sub.PlayerSessionID != "" {
		s.notify(ctx, notify.PlayerChannel(sub.PlayerSessionID), msg)
	}

	for _, r := range released {
		s.logger.Info("submission released", "submission_id", r.ID, "blocker_id", id)
		s.notify(ctx, notify.ChannelAdmin, notify.Message{
			Type:    notify.TypeQueueReleased,
			Payload: map[string]string{"submissionId": r.ID, "releasedBy": id},
		})
	}
}

// notifyPoints sends every affected team the balance it is allowed to see.
func (s *Service) notifyPoints(ctx context.Context, ev fieldgame.Event) {
	now := s.clock()
	ids := []string{ev.TeamID}
	if ev.TargetTeamID != "" && ev.TargetTeamID != ev.TeamID {
		ids = append(ids, ev.TargetTeamID)
	}
	for _, teamID := range ids {
		team, err := s.store.GetTeam(ctx, teamID)
		if err != nil {
			s.logger.Warn("loading team for points update", "team_id", teamID, "error", err)
			continue
		}
		points, err := s.store.VisiblePoints(ctx, team, now)
		if err != nil {
			s.logger.Warn("computing visible points", "team_id", teamID, "error", err)
			continue
		}
		s.notify(ctx, notify.TeamChannel(teamID), notify.Message{
			Type:    notify.TypePointsUpdated,
			Payload: map[string]int{"points": points},
		})
	}
	s.notify(ctx, notify.ChannelAdmin, notify.Message{Type: notify.TypePointsUpdated, Payload: ev})
}

// notify delivers best effort. Failures are logged and never returned.
func (s *Service) notify(ctx context.Context, channel string, msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, channel, msg); err != nil {
		s.logger.Warn("notification failed", "channel", channel, "type", msg.Type, "error", err)
	}
}
