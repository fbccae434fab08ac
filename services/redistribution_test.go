package services

import (
	"errors"
	"testing"
	"time"

	"studyplan_go/models"
)

func makePlan(id uint, start, end int, date string) models.Plan {
	d, _ := time.Parse("2006-01-02", date)
	return models.Plan{
		BaseModel:     models.BaseModel{ID: id},
		ContainerType: models.ContainerDaily,
		PlanDate:      d,
		PlannedStart:  start,
		PlannedEnd:    end,
		Status:        models.PlanStatusPending,
		IsActive:      true,
	}
}

func TestComputeRedistributionShrink(t *testing.T) {
	// Plan 10-20 completed only up to 15; pages 15-20 spread over two
	// future plans, ceil(5/2)=3 to the first, 2 to the second.
	edited := makePlan(1, 10, 20, "2026-08-24")
	targets := []models.Plan{
		makePlan(2, 20, 30, "2026-08-25"),
		makePlan(3, 30, 40, "2026-08-26"),
	}

	preview, err := ComputeRedistribution(&edited, 10, 15, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.VolumeChange != 5 {
		t.Fatalf("expected volume change 5, got %d", preview.VolumeChange)
	}
	if len(preview.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(preview.Targets))
	}
	if preview.Targets[0].Delta != 3 || preview.Targets[0].NewEnd != 33 {
		t.Fatalf("first target: expected delta 3 / new end 33, got %d / %d",
			preview.Targets[0].Delta, preview.Targets[0].NewEnd)
	}
	if preview.Targets[1].Delta != 2 || preview.Targets[1].NewEnd != 42 {
		t.Fatalf("second target: expected delta 2 / new end 42, got %d / %d",
			preview.Targets[1].Delta, preview.Targets[1].NewEnd)
	}
	if preview.Unassigned != 0 {
		t.Fatalf("expected no unassigned volume, got %d", preview.Unassigned)
	}
}

func TestComputeRedistributionGrowBorrowsBack(t *testing.T) {
	// Growing the edited plan by 6 pulls ceil(6/3)=2 from each of three
	// future plans.
	edited := makePlan(1, 0, 10, "2026-08-24")
	targets := []models.Plan{
		makePlan(2, 10, 20, "2026-08-25"),
		makePlan(3, 20, 30, "2026-08-26"),
		makePlan(4, 30, 40, "2026-08-27"),
	}

	preview, err := ComputeRedistribution(&edited, 0, 16, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.VolumeChange != -6 {
		t.Fatalf("expected volume change -6, got %d", preview.VolumeChange)
	}
	for i, target := range preview.Targets {
		if target.Delta != -2 {
			t.Fatalf("target %d: expected delta -2, got %d", i, target.Delta)
		}
	}
	if preview.Unassigned != 0 {
		t.Fatalf("expected no unassigned volume, got %d", preview.Unassigned)
	}
}

func TestComputeRedistributionBorrowClampCascades(t *testing.T) {
	// First target only holds 1 page; its shortfall lands on the target
	// with spare capacity instead of being dropped.
	edited := makePlan(1, 0, 10, "2026-08-24")
	targets := []models.Plan{
		makePlan(2, 10, 11, "2026-08-25"), // volume 1
		makePlan(3, 11, 31, "2026-08-26"), // volume 20
	}

	preview, err := ComputeRedistribution(&edited, 0, 16, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, target := range preview.Targets {
		if target.NewEnd < target.OriginalStart {
			t.Fatalf("target %d shrank below zero volume", target.PlanID)
		}
		total += target.Delta
	}
	if total != -6 {
		t.Fatalf("expected borrowed total -6, got %d", total)
	}
	if preview.Unassigned != 0 {
		t.Fatalf("expected cascade to absorb the remainder, got %d unassigned", preview.Unassigned)
	}
}

func TestComputeRedistributionBorrowExhaustsTargets(t *testing.T) {
	// Targets hold 3 pages combined; borrowing 10 leaves 7 unassigned.
	edited := makePlan(1, 0, 10, "2026-08-24")
	targets := []models.Plan{
		makePlan(2, 10, 12, "2026-08-25"), // volume 2
		makePlan(3, 12, 13, "2026-08-26"), // volume 1
	}

	preview, err := ComputeRedistribution(&edited, 0, 20, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, target := range preview.Targets {
		total += -target.Delta
	}
	if total != 3 {
		t.Fatalf("expected 3 borrowed, got %d", total)
	}
	if preview.Unassigned != 7 {
		t.Fatalf("expected 7 unassigned, got %d", preview.Unassigned)
	}
}

func TestComputeRedistributionConservation(t *testing.T) {
	tests := []struct {
		name     string
		newStart int
		newEnd   int
	}{
		{"shrink by 7", 10, 13},
		{"shrink by 1", 10, 19},
		{"grow by 4", 10, 24},
		{"no change", 10, 20},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			edited := makePlan(1, 10, 20, "2026-08-24")
			targets := []models.Plan{
				makePlan(2, 20, 30, "2026-08-25"),
				makePlan(3, 30, 45, "2026-08-26"),
				makePlan(4, 45, 50, "2026-08-27"),
			}

			preview, err := ComputeRedistribution(&edited, tc.newStart, tc.newEnd, targets)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assigned := 0
			for _, target := range preview.Targets {
				assigned += target.Delta
			}
			redistributed := assigned
			if redistributed < 0 {
				redistributed = -redistributed
			}
			change := preview.VolumeChange
			if change < 0 {
				change = -change
			}
			if redistributed+preview.Unassigned != change {
				t.Fatalf("volume not conserved: %d assigned + %d unassigned != %d change",
					redistributed, preview.Unassigned, change)
			}
		})
	}
}

func TestComputeRedistributionNoTargets(t *testing.T) {
	edited := makePlan(1, 10, 20, "2026-08-24")

	preview, err := ComputeRedistribution(&edited, 10, 15, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preview.Targets) != 0 {
		t.Fatalf("expected no targets, got %d", len(preview.Targets))
	}
	// With no targets nothing can absorb the delta either.
	if preview.VolumeChange != 5 {
		t.Fatalf("expected volume change 5, got %d", preview.VolumeChange)
	}
}

func TestComputeRedistributionInvalidRange(t *testing.T) {
	edited := makePlan(1, 10, 20, "2026-08-24")

	tests := []struct {
		name     string
		newStart int
		newEnd   int
	}{
		{"negative start", -1, 10},
		{"end before start", 20, 10},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeRedistribution(&edited, tc.newStart, tc.newEnd, nil)
			var rangeErr *InvalidRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected InvalidRangeError, got %v", err)
			}
		})
	}
}

func TestRedistributionDates(t *testing.T) {
	planDate := mustDate(t, "2025-03-10")

	tests := []struct {
		name    string
		targets []RedistributionTarget
		want    []string
	}{
		{
			name:    "no targets",
			targets: nil,
			want:    []string{"2025-03-10"},
		},
		{
			name: "targets on later days",
			targets: []RedistributionTarget{
				{PlanID: 2, PlanDate: mustDate(t, "2025-03-11")},
				{PlanID: 3, PlanDate: mustDate(t, "2025-03-12")},
			},
			want: []string{"2025-03-10", "2025-03-11", "2025-03-12"},
		},
		{
			name: "duplicate days collapse",
			targets: []RedistributionTarget{
				{PlanID: 2, PlanDate: mustDate(t, "2025-03-10")},
				{PlanID: 3, PlanDate: mustDate(t, "2025-03-11")},
				{PlanID: 4, PlanDate: mustDate(t, "2025-03-11")},
			},
			want: []string{"2025-03-10", "2025-03-11"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := redistributionDates(planDate, tc.targets)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d dates, want %d", len(got), len(tc.want))
			}
			for i, day := range got {
				if day.Format("2006-01-02") != tc.want[i] {
					t.Errorf("date[%d] = %s, want %s", i, day.Format("2006-01-02"), tc.want[i])
				}
			}
		})
	}
}
