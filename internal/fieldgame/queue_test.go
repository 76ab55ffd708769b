package fieldgame

import (
	"context"
	"testing"
	"time"
)

func TestCheckQueue(t *testing.T) {
	photo := Submission{
		ID: "p1", Kind: KindPhotograph, TeamID: "a", TeamName: "Alpha", TargetTeamID: "b",
		Status: StatusPending, SubmittedAt: t0,
	}
	laterPhoto := photo
	laterPhoto.ID = "p2"
	laterPhoto.SubmittedAt = t0.Add(2 * time.Minute)
	notice := Submission{
		ID: "n1", Kind: KindNotice, TeamID: "b", TeamName: "Bravo", TargetTeamID: "a",
		Status: StatusPending, SubmittedAt: t0.Add(time.Minute),
	}

	l := &memLedger{pending: []Submission{laterPhoto, photo, notice}}

	tests := []struct {
		name       string
		sub        Submission
		wantBlock  bool
		wantID     string
		wantReason string
	}{
		{
			name:       "notice waits for earliest photograph",
			sub:        Submission{ID: "n2", Kind: KindNotice, TeamID: "b", TargetTeamID: "a", SubmittedAt: t0.Add(5 * time.Minute)},
			wantBlock:  true,
			wantID:     "p1",
			wantReason: "waiting for photo verification of Alpha",
		},
		{
			name:       "photograph waits for earlier notice",
			sub:        Submission{ID: "p3", Kind: KindPhotograph, TeamID: "a", TargetTeamID: "b", SubmittedAt: t0.Add(5 * time.Minute)},
			wantBlock:  true,
			wantID:     "n1",
			wantReason: "waiting for 'noticed photograph' of Bravo",
		},
		{
			name: "strictly before",
			sub:  Submission{ID: "n3", Kind: KindNotice, TeamID: "b", TargetTeamID: "a", SubmittedAt: t0},
		},
		{
			name: "other pair",
			sub:  Submission{ID: "n4", Kind: KindNotice, TeamID: "c", TargetTeamID: "a", SubmittedAt: t0.Add(time.Hour)},
		},
		{
			name: "unrelated kind",
			sub:  Submission{ID: "s1", Kind: KindSpy, TeamID: "b", TargetTeamID: "a", SubmittedAt: t0.Add(time.Hour)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckQueue(context.Background(), l, tt.sub)
			if err != nil {
				t.Fatalf("CheckQueue: %v", err)
			}
			if got.Blocked != tt.wantBlock {
				t.Fatalf("blocked = %v, want %v", got.Blocked, tt.wantBlock)
			}
			if got.BlockingID != tt.wantID {
				t.Errorf("blocking id = %q, want %q", got.BlockingID, tt.wantID)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestSubmissionQueue(t *testing.T) {
	s := Submission{QueuedBehindID: "p1", QueueReason: "waiting"}
	if got := s.Queue(); !got.Blocked || got.BlockingID != "p1" || got.Reason != "waiting" {
		t.Errorf("Queue() = %+v", got)
	}
	if got := (Submission{}).Queue(); got.Blocked {
		t.Errorf("empty submission blocked: %+v", got)
	}
}
