package services

import (
	"testing"

	"studyplan_go/models"
)

func TestRecalculatePlanTimesContiguous(t *testing.T) {
	plans := []models.Plan{
		timedPlan(1, "10:00", "10:45"), // 45 min
		timedPlan(2, "14:00", "15:30"), // 90 min
		timedPlan(3, "16:00", "16:30"), // 30 min
	}

	out := RecalculatePlanTimes(plans, 9*60)

	want := []struct {
		start string
		end   string
	}{
		{"09:00", "09:45"},
		{"09:45", "11:15"},
		{"11:15", "11:45"},
	}

	for i, w := range want {
		if *out[i].StartTime != w.start || *out[i].EndTime != w.end {
			t.Fatalf("plan %d: expected %s-%s, got %s-%s",
				i, w.start, w.end, *out[i].StartTime, *out[i].EndTime)
		}
		if out[i].Sequence != i {
			t.Fatalf("plan %d: expected sequence %d, got %d", i, i, out[i].Sequence)
		}
	}
}

func TestRecalculatePlanTimesPreservesDurations(t *testing.T) {
	plans := []models.Plan{
		timedPlan(1, "19:00", "19:50"),
		timedPlan(2, "20:00", "21:10"),
	}
	// Swap the visual order; durations must follow their plans.
	swapped := []models.Plan{plans[1], plans[0]}

	out := RecalculatePlanTimes(swapped, 19*60)

	if *out[0].StartTime != "19:00" || *out[0].EndTime != "20:10" {
		t.Fatalf("first plan should keep its 70 minutes, got %s-%s", *out[0].StartTime, *out[0].EndTime)
	}
	if *out[1].StartTime != "20:10" || *out[1].EndTime != "21:00" {
		t.Fatalf("second plan should keep its 50 minutes, got %s-%s", *out[1].StartTime, *out[1].EndTime)
	}
}

func TestRecalculatePlanTimesDefaultDuration(t *testing.T) {
	// A plan that never had times gets the default hour.
	untimed := makePlan(1, 0, 10, "2026-08-28")

	out := RecalculatePlanTimes([]models.Plan{untimed}, 13*60)

	if *out[0].StartTime != "13:00" || *out[0].EndTime != "14:00" {
		t.Fatalf("expected default 60-minute span, got %s-%s", *out[0].StartTime, *out[0].EndTime)
	}
}

func TestRecalculatePlanTimesEmpty(t *testing.T) {
	if out := RecalculatePlanTimes(nil, 9*60); len(out) != 0 {
		t.Fatalf("expected empty result, got %d plans", len(out))
	}
}
