package services

import (
	"testing"
	"time"

	"studyplan_go/models"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad date %q: %v", value, err)
	}
	return d
}

func TestCarryoverEligible(t *testing.T) {
	tests := []struct {
		name      string
		container string
		status    string
		isActive  bool
		planDate  string
		cutoff    string
		want      bool
	}{
		{
			name:      "overdue pending daily plan",
			container: models.ContainerDaily,
			status:    models.PlanStatusPending,
			isActive:  true,
			planDate:  "2026-08-27",
			cutoff:    "2026-08-28",
			want:      true,
		},
		{
			name:      "overdue in-progress daily plan",
			container: models.ContainerDaily,
			status:    models.PlanStatusInProgress,
			isActive:  true,
			planDate:  "2026-08-20",
			cutoff:    "2026-08-28",
			want:      true,
		},
		{
			name:      "completed plans stay put",
			container: models.ContainerDaily,
			status:    models.PlanStatusCompleted,
			isActive:  true,
			planDate:  "2026-08-27",
			cutoff:    "2026-08-28",
			want:      false,
		},
		{
			name:      "today's plan is not overdue",
			container: models.ContainerDaily,
			status:    models.PlanStatusPending,
			isActive:  true,
			planDate:  "2026-08-28",
			cutoff:    "2026-08-28",
			want:      false,
		},
		{
			name:      "already in the backlog",
			container: models.ContainerUnfinished,
			status:    models.PlanStatusPending,
			isActive:  true,
			planDate:  "2026-08-20",
			cutoff:    "2026-08-28",
			want:      false,
		},
		{
			name:      "weekly plans are exempt",
			container: models.ContainerWeekly,
			status:    models.PlanStatusPending,
			isActive:  true,
			planDate:  "2026-08-20",
			cutoff:    "2026-08-28",
			want:      false,
		},
		{
			name:      "inactive plans are skipped",
			container: models.ContainerDaily,
			status:    models.PlanStatusPending,
			isActive:  false,
			planDate:  "2026-08-20",
			cutoff:    "2026-08-28",
			want:      false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := CarryoverEligible(tc.container, tc.status, tc.isActive,
				mustDate(t, tc.planDate), mustDate(t, tc.cutoff))
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestApplyCarryoverFirstMove(t *testing.T) {
	plan := makePlan(1, 10, 20, "2026-08-25")

	ApplyCarryover(&plan)

	if plan.ContainerType != models.ContainerUnfinished {
		t.Fatalf("expected unfinished container, got %q", plan.ContainerType)
	}
	if plan.CarryoverCount != 1 {
		t.Fatalf("expected carryover count 1, got %d", plan.CarryoverCount)
	}
	if plan.CarryoverFromDate == nil || !plan.CarryoverFromDate.Equal(mustDate(t, "2026-08-25")) {
		t.Fatalf("expected provenance date 2026-08-25, got %v", plan.CarryoverFromDate)
	}
}

func TestApplyCarryoverPreservesEarliestDate(t *testing.T) {
	// A plan rescheduled once and missed again keeps its original date.
	original := mustDate(t, "2026-08-20")
	plan := makePlan(1, 10, 20, "2026-08-25")
	plan.CarryoverCount = 1
	plan.CarryoverFromDate = &original

	ApplyCarryover(&plan)

	if plan.CarryoverCount != 2 {
		t.Fatalf("expected carryover count 2, got %d", plan.CarryoverCount)
	}
	if !plan.CarryoverFromDate.Equal(original) {
		t.Fatalf("provenance date overwritten: got %v", plan.CarryoverFromDate)
	}
}

func TestApplyAdHocCarryover(t *testing.T) {
	adhoc := models.AdHocPlan{
		BaseModel:     models.BaseModel{ID: 5},
		Title:         "Print worksheets",
		PlanDate:      mustDate(t, "2026-08-26"),
		ContainerType: models.ContainerDaily,
		Status:        models.PlanStatusPending,
		IsActive:      true,
	}

	ApplyAdHocCarryover(&adhoc)

	if adhoc.ContainerType != models.ContainerUnfinished {
		t.Fatalf("expected unfinished container, got %q", adhoc.ContainerType)
	}
	if adhoc.CarryoverCount != 1 {
		t.Fatalf("expected carryover count 1, got %d", adhoc.CarryoverCount)
	}
	if adhoc.CarryoverFromDate == nil || !adhoc.CarryoverFromDate.Equal(mustDate(t, "2026-08-26")) {
		t.Fatalf("expected provenance date 2026-08-26, got %v", adhoc.CarryoverFromDate)
	}
}
