package services

import (
	"testing"
	"time"
)

type recordingBroadcaster struct {
	actions    []string
	studentIDs []uint
	dates      []string
}

func (r *recordingBroadcaster) BroadcastPlanEvent(action string, studentID uint, date string) {
	r.actions = append(r.actions, action)
	r.studentIDs = append(r.studentIDs, studentID)
	r.dates = append(r.dates, date)
}

func TestBroadcastPlanEventDispatch(t *testing.T) {
	rec := &recordingBroadcaster{}
	SetPlanEventBroadcaster(rec)
	defer SetPlanEventBroadcaster(nil)

	at := time.Date(2025, 3, 10, 15, 42, 0, 0, time.Local)
	BroadcastPlanEvent("moved", 7, at)

	if len(rec.actions) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.actions))
	}
	if rec.actions[0] != "moved" {
		t.Errorf("action = %q, want %q", rec.actions[0], "moved")
	}
	if rec.studentIDs[0] != 7 {
		t.Errorf("student = %d, want 7", rec.studentIDs[0])
	}
	if rec.dates[0] != "2025-03-10" {
		t.Errorf("date = %q, want %q", rec.dates[0], "2025-03-10")
	}
}

func TestBroadcastPlanEventWithoutHub(t *testing.T) {
	SetPlanEventBroadcaster(nil)
	// CLI entrypoints never wire a hub; broadcasts must be dropped silently.
	BroadcastPlanEvent("created", 1, time.Now())
}
