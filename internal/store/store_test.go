package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playperu/fieldgame/internal/database"
	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/migrations"
)

var t0 = time.Date(2026, 6, 13, 14, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := New(db)
	if err := s.EnsureOptionSettings(ctx); err != nil {
		t.Fatalf("seed options: %v", err)
	}
	return s
}

func mustTeam(t *testing.T, s *Store, name string) fieldgame.Team {
	t.Helper()
	team, err := s.CreateTeam(context.Background(), TeamInput{Name: name}, t0)
	if err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return team
}

func mustCheckpoint(t *testing.T, s *Store, name string, points int) fieldgame.Checkpoint {
	t.Helper()
	c, err := s.CreateCheckpoint(context.Background(), CheckpointInput{Name: name, Points: points}, t0)
	if err != nil {
		t.Fatalf("create checkpoint %s: %v", name, err)
	}
	return c
}

func TestTeams(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alpha := mustTeam(t, s, "Alpha")
	if len(alpha.JoinToken) < 16 {
		t.Errorf("join token %q too short", alpha.JoinToken)
	}

	got, err := s.TeamByJoinToken(ctx, alpha.JoinToken)
	if err != nil {
		t.Fatalf("TeamByJoinToken: %v", err)
	}
	if got.ID != alpha.ID || !got.CreatedAt.Equal(t0) {
		t.Errorf("got %+v, want %+v", got, alpha)
	}

	_, err = s.CreateTeam(ctx, TeamInput{Name: "Alpha"}, t0)
	var verr *fieldgame.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("duplicate name err = %v, want ValidationError", err)
	}

	got.Points, got.Bounty, got.FalseInfo = -20, 30, true
	if err := s.SaveTeamState(ctx, got); err != nil {
		t.Fatalf("SaveTeamState: %v", err)
	}
	got, _ = s.GetTeam(ctx, alpha.ID)
	if got.Points != -20 || got.Bounty != 30 || !got.FalseInfo {
		t.Errorf("state not saved: %+v", got)
	}

	if _, err := s.GetTeam(ctx, "missing"); !errors.Is(err, fieldgame.ErrNotFound) {
		t.Errorf("missing team err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTeam(ctx, "missing"); !errors.Is(err, fieldgame.ErrNotFound) {
		t.Errorf("delete missing err = %v, want ErrNotFound", err)
	}
}

func TestRenameTeam(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	locked, err := s.CreateTeam(ctx, TeamInput{Name: "Locked"}, t0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RenameTeam(ctx, locked.ID, "Other"); err == nil {
		t.Error("renamed a team without editable name")
	}

	open, err := s.CreateTeam(ctx, TeamInput{Name: "Open", NameEditable: true}, t0)
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := s.RenameTeam(ctx, open.ID, "Wolves")
	if err != nil {
		t.Fatalf("RenameTeam: %v", err)
	}
	if renamed.Name != "Wolves" {
		t.Errorf("name = %q, want Wolves", renamed.Name)
	}
}

func TestOptionSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	settings, err := s.OptionSettings(ctx)
	if err != nil {
		t.Fatalf("OptionSettings: %v", err)
	}
	if got := settings[fieldgame.KindPhotograph].CooldownSeconds; got != 3600 {
		t.Errorf("photograph cooldown = %d, want 3600", got)
	}

	spy := settings[fieldgame.KindSpy]
	spy.Cost = 75
	spy.RuleText = "custom"
	if err := s.SaveOptionSetting(ctx, spy); err != nil {
		t.Fatalf("SaveOptionSetting: %v", err)
	}
	if err := s.EnsureOptionSettings(ctx); err != nil {
		t.Fatalf("EnsureOptionSettings: %v", err)
	}
	settings, _ = s.OptionSettings(ctx)
	if settings[fieldgame.KindSpy].Cost != 75 {
		t.Errorf("seeding overwrote the spy cost: %d", settings[fieldgame.KindSpy].Cost)
	}

	if err := s.ResetRules(ctx); err != nil {
		t.Fatalf("ResetRules: %v", err)
	}
	settings, _ = s.OptionSettings(ctx)
	if settings[fieldgame.KindSpy].RuleText == "custom" {
		t.Error("rule text not reset")
	}

	spy = settings[fieldgame.KindSpy]
	spy.RuleText = "house rules"
	s.SaveOptionSetting(ctx, spy)
	if err := s.SaveRulesAsDefaults(ctx); err != nil {
		t.Fatalf("SaveRulesAsDefaults: %v", err)
	}
	s.ResetRules(ctx)
	settings, _ = s.OptionSettings(ctx)
	if got := settings[fieldgame.KindSpy].RuleText; got != "house rules" {
		t.Errorf("rule text = %q, want house rules", got)
	}
}

func TestClockRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.UpdateClock(ctx, func(c *fieldgame.GameClock) error {
		c.StartGame(t0)
		c.Multiplier = decimal.RequireFromString("1.5")
		c.SaveAsDefaults()
		off := false
		c.Override = &off
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateClock: %v", err)
	}

	if _, err := s.CreateWindow(ctx, fieldgame.TimeWindow{Name: "morning", Start: t0, End: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if _, err := s.CreateWindow(ctx, fieldgame.TimeWindow{Name: "broken", Start: t0, End: t0}); err == nil {
		t.Error("created a window that ends at its start")
	}

	loaded, err := s.LoadClock(ctx)
	if err != nil {
		t.Fatalf("LoadClock: %v", err)
	}
	if !loaded.Active || loaded.Start == nil || !loaded.Start.Equal(t0) {
		t.Errorf("loaded clock %+v, want active since %v", loaded, t0)
	}
	if loaded.Override == nil || *loaded.Override {
		t.Errorf("override = %v, want false", loaded.Override)
	}
	if !loaded.Multiplier.Equal(c.Multiplier) {
		t.Errorf("multiplier = %s, want %s", loaded.Multiplier, c.Multiplier)
	}
	if loaded.Defaults == nil || !loaded.Defaults.Multiplier.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("defaults = %+v", loaded.Defaults)
	}
	if len(loaded.Windows) != 1 || loaded.Windows[0].Name != "morning" {
		t.Errorf("windows = %+v", loaded.Windows)
	}
}

func TestInsertSubmissionPendingUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alpha := mustTeam(t, s, "Alpha")
	c1 := mustCheckpoint(t, s, "C1", 100)
	c2 := mustCheckpoint(t, s, "C2", 100)

	insert := func(cp string) error {
		return s.InsertSubmission(ctx, &fieldgame.Submission{
			TeamID: alpha.ID, Kind: fieldgame.KindCapture, CheckpointID: cp,
			Status: fieldgame.StatusPending, SubmittedAt: t0,
		})
	}
	if err := insert(c1.ID); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := insert(c2.ID); err != nil {
		t.Fatalf("other checkpoint: %v", err)
	}
	var verr *fieldgame.ValidationError
	if err := insert(c1.ID); !errors.As(err, &verr) {
		t.Fatalf("duplicate pending err = %v, want ValidationError", err)
	}
}

func TestInsertSubmissionConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alpha := mustTeam(t, s, "Alpha")
	c1 := mustCheckpoint(t, s, "C1", 100)

	const workers = 8
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertSubmission(ctx, &fieldgame.Submission{
				TeamID: alpha.ID, Kind: fieldgame.KindCapture, CheckpointID: c1.ID,
				Status: fieldgame.StatusPending, SubmittedAt: t0,
			})
			var verr *fieldgame.ValidationError
			switch {
			case err == nil:
				ok.Add(1)
			case errors.As(err, &verr):
				rejected.Add(1)
			default:
				t.Errorf("insert: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 || rejected.Load() != workers-1 {
		t.Errorf("ok=%d rejected=%d, want 1/%d", ok.Load(), rejected.Load(), workers-1)
	}
}

func TestResolveAndRelease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustTeam(t, s, "Alpha")
	b := mustTeam(t, s, "Bravo")

	photo := &fieldgame.Submission{
		TeamID: a.ID, Kind: fieldgame.KindPhotograph, TargetTeamID: b.ID,
		Status: fieldgame.StatusPending, SubmittedAt: t0,
	}
	if err := s.InsertSubmission(ctx, photo); err != nil {
		t.Fatal(err)
	}

	blocker, err := s.EarliestPending(ctx, fieldgame.KindPhotograph, a.ID, b.ID, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("EarliestPending: %v", err)
	}
	if blocker == nil || blocker.ID != photo.ID || blocker.TeamName != "Alpha" {
		t.Fatalf("blocker = %+v, want photo by Alpha", blocker)
	}
	if none, _ := s.EarliestPending(ctx, fieldgame.KindPhotograph, a.ID, b.ID, t0); none != nil {
		t.Errorf("found a blocker submitted at the same instant: %+v", none)
	}

	notice := &fieldgame.Submission{
		TeamID: b.ID, Kind: fieldgame.KindNotice, TargetTeamID: a.ID,
		Status: fieldgame.StatusPending, SubmittedAt: t0.Add(time.Minute),
		QueuedBehindID: photo.ID, QueueReason: "waiting for photo verification of Alpha",
	}
	if err := s.InsertSubmission(ctx, notice); err != nil {
		t.Fatal(err)
	}

	err = s.InTx(ctx, func(tx *Store) error {
		if err := tx.ResolveSubmission(ctx, photo.ID, fieldgame.StatusDenied, "", "blurry", t0.Add(time.Hour)); err != nil {
			return err
		}
		released, err := tx.ReleaseQueued(ctx, photo.ID)
		if err != nil {
			return err
		}
		if len(released) != 1 || released[0].ID != notice.ID || released[0].Blocked() {
			t.Errorf("released = %+v, want the notice unblocked", released)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := s.ResolveSubmission(ctx, photo.ID, fieldgame.StatusVerified, "", "", t0); !errors.Is(err, fieldgame.ErrStateConflict) {
		t.Errorf("second resolve err = %v, want ErrStateConflict", err)
	}
	again, err := s.ReleaseQueued(ctx, photo.ID)
	if err != nil || len(again) != 0 {
		t.Errorf("second release = %v, %v; want nothing", again, err)
	}

	got, _ := s.GetSubmission(ctx, photo.ID)
	if got.Status != fieldgame.StatusDenied || got.AdminMessage != "blurry" || got.VerifiedAt == nil {
		t.Errorf("resolved submission = %+v", got)
	}
}

func TestLedgerQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustTeam(t, s, "Alpha")
	b := mustTeam(t, s, "Bravo")
	c1 := mustCheckpoint(t, s, "C1", 100)

	hidden := t0.Add(10 * time.Minute)
	events := []fieldgame.Event{
		{Kind: fieldgame.KindPhotograph, TeamID: a.ID, TargetTeamID: b.ID, TeamPoints: 400, TargetTeamPoints: -400, Time: t0, HiddenUntil: &hidden},
		{Kind: fieldgame.KindPhotograph, TeamID: a.ID, TargetTeamID: b.ID, TeamPoints: 0, Time: t0.Add(5 * time.Minute)},
		{Kind: fieldgame.KindCapture, TeamID: a.ID, CheckpointID: c1.ID, TeamPoints: 200, Time: t0},
	}
	for i := range events {
		events[i].CreatedAt = t0
		if err := s.InsertEvent(ctx, &events[i]); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}

	latest, err := s.LatestScoringEvent(ctx, fieldgame.KindPhotograph, a.ID, b.ID, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("LatestScoringEvent: %v", err)
	}
	if latest == nil || latest.ID != events[0].ID {
		t.Errorf("latest = %+v, want the scoring photograph", latest)
	}
	if before, _ := s.LatestScoringEvent(ctx, fieldgame.KindPhotograph, a.ID, b.ID, t0.Add(-time.Second)); before != nil {
		t.Errorf("found an event after the effective time: %+v", before)
	}
	if reverse, _ := s.LatestScoringEvent(ctx, fieldgame.KindPhotograph, b.ID, a.ID, t0.Add(time.Hour)); reverse != nil {
		t.Errorf("found an event in the reverse direction: %+v", reverse)
	}

	captured, err := s.HasCaptured(ctx, a.ID, c1.ID)
	if err != nil || !captured {
		t.Errorf("HasCaptured = %v, %v; want true", captured, err)
	}
	if captured, _ := s.HasCaptured(ctx, b.ID, c1.ID); captured {
		t.Error("HasCaptured true for a team that never captured")
	}

	b.Points = -400
	visible, err := s.VisiblePoints(ctx, b, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("VisiblePoints: %v", err)
	}
	if visible != 0 {
		t.Errorf("visible points = %d, want 0", visible)
	}
}

func TestJoinTeam(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustTeam(t, s, "Alpha")
	b := mustTeam(t, s, "Bravo")

	ps, err := s.SessionForDevice(ctx, "device-1", "Kim", t0)
	if err != nil {
		t.Fatalf("SessionForDevice: %v", err)
	}
	again, err := s.SessionForDevice(ctx, "device-1", "", t0)
	if err != nil || again.ID != ps.ID {
		t.Fatalf("second lookup = %+v, %v; want the same session", again, err)
	}

	if _, team, err := s.JoinTeam(ctx, ps.ID, a.JoinToken, t0); err != nil || team.ID != a.ID {
		t.Fatalf("join Alpha = %v, %v", team, err)
	}
	for i := 0; i < fieldgame.MaxJoinAttempts; i++ {
		if _, _, err := s.JoinTeam(ctx, ps.ID, b.JoinToken, t0); !errors.Is(err, fieldgame.ErrTeamLocked) {
			t.Fatalf("join Bravo err = %v, want ErrTeamLocked", err)
		}
	}

	stored, err := s.SessionByToken(ctx, ps.Token)
	if err != nil {
		t.Fatalf("SessionByToken: %v", err)
	}
	if stored.TeamID != a.ID || !stored.Blocked(t0.Add(time.Minute)) {
		t.Errorf("stored session = %+v, want blocked in Alpha", stored)
	}

	unblocked, err := s.UnblockSession(ctx, ps.ID)
	if err != nil || unblocked.Blocked(t0) {
		t.Errorf("UnblockSession = %+v, %v", unblocked, err)
	}

	if _, _, err := s.JoinTeam(ctx, ps.ID, "bogus", t0); !errors.Is(err, fieldgame.ErrNotFound) {
		t.Errorf("bad token err = %v, want ErrNotFound", err)
	}
}

func TestAdmins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureAdmin(ctx, "Admin@Example.com", "hunter22"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if _, err := s.Authenticate(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrNoAdminSession) {
		t.Errorf("wrong password err = %v", err)
	}
	a, err := s.Authenticate(ctx, "admin@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	id, err := s.CreateAdminSession(ctx, a.ID, t0)
	if err != nil {
		t.Fatalf("CreateAdminSession: %v", err)
	}
	if got, err := s.AdminFromSession(ctx, id, t0.Add(time.Hour)); err != nil || got.Email != "admin@example.com" {
		t.Errorf("AdminFromSession = %+v, %v", got, err)
	}
	if _, err := s.AdminFromSession(ctx, id, t0.Add(AdminSessionTTL+time.Minute)); !errors.Is(err, ErrNoAdminSession) {
		t.Errorf("expired session err = %v", err)
	}
	s.DeleteAdminSession(ctx, id)
	if _, err := s.AdminFromSession(ctx, id, t0); !errors.Is(err, ErrNoAdminSession) {
		t.Errorf("deleted session err = %v", err)
	}
}

func TestResetsAndControlRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustTeam(t, s, "Alpha")
	b := mustTeam(t, s, "Bravo")
	c1 := mustCheckpoint(t, s, "C1", 100)

	a.Points, a.Bounty = 300, 20
	s.SaveTeamState(ctx, a)
	b.Points = 500
	s.SaveTeamState(ctx, b)
	c1.MineCharge, c1.CaptureCount = 60, 2
	s.SaveCheckpointState(ctx, c1)

	s.InsertSubmission(ctx, &fieldgame.Submission{
		TeamID: a.ID, Kind: fieldgame.KindCounterEspionage, Status: fieldgame.StatusPending, SubmittedAt: t0,
	})

	cr, err := s.ControlRoom(ctx, t0, t0.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ControlRoom: %v", err)
	}
	if cr.PendingCount != 1 || cr.NextPending == nil {
		t.Errorf("pending = %d (%v), want 1", cr.PendingCount, cr.NextPending)
	}
	if len(cr.Teams) != 2 || cr.Teams[0].Name != "Bravo" {
		t.Errorf("ranking = %+v, want Bravo first", cr.Teams)
	}

	for _, r := range []Reset{ResetMines, ResetCaptureCounts, ResetPoints, ResetBounties} {
		if _, err := s.ApplyReset(ctx, r); err != nil {
			t.Fatalf("reset %s: %v", r, err)
		}
	}
	if _, err := s.ApplyReset(ctx, "everything"); err == nil {
		t.Error("unknown reset succeeded")
	}

	c1, _ = s.GetCheckpoint(ctx, c1.ID)
	if c1.MineCharge != 0 || c1.CaptureCount != 0 {
		t.Errorf("checkpoint after reset = %+v", c1)
	}
	a, _ = s.GetTeam(ctx, a.ID)
	if a.Points != 0 || a.Bounty != 0 {
		t.Errorf("team after reset = %+v", a)
	}

	if _, err := s.ApplyReset(ctx, ResetTeams); err != nil {
		t.Fatalf("reset teams: %v", err)
	}
	teams, _ := s.ListTeams(ctx)
	if len(teams) != 0 {
		t.Errorf("teams after reset = %d, want 0", len(teams))
	}
}
