package services

import (
	"testing"

	"studyplan_go/models"
)

func timedPlan(id uint, start, end string) models.Plan {
	p := makePlan(id, 0, 10, "2026-08-28")
	p.Title = "Plan"
	p.StartTime = &start
	p.EndTime = &end
	return p
}

func block(id uint, blockType, start, end string) models.NonStudyBlock {
	return models.NonStudyBlock{
		BaseModel: models.BaseModel{ID: id},
		Type:      blockType,
		StartTime: start,
		EndTime:   end,
	}
}

func studySlot(id uint, start, end string) models.TimeSlot {
	return models.TimeSlot{
		BaseModel: models.BaseModel{ID: id},
		Kind:      models.SlotKindStudy,
		StartTime: start,
		EndTime:   end,
		Active:    true,
	}
}

func TestDetectConflictsSymmetric(t *testing.T) {
	plans := []models.Plan{
		timedPlan(1, "10:00", "11:00"),
		timedPlan(2, "10:30", "11:30"),
		timedPlan(3, "12:00", "13:00"),
	}

	conflicts := DetectConflicts(plans)

	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicting plans, got %d", len(conflicts))
	}
	if _, ok := conflicts[3]; ok {
		t.Fatalf("plan 3 should not conflict")
	}
	if got := conflicts[1].OverlapsWith; len(got) != 1 || got[0] != 2 {
		t.Fatalf("plan 1 should overlap plan 2, got %v", got)
	}
	if got := conflicts[2].OverlapsWith; len(got) != 1 || got[0] != 1 {
		t.Fatalf("plan 2 should overlap plan 1, got %v", got)
	}
}

func TestDetectConflictsTouchingEdgesAllowed(t *testing.T) {
	plans := []models.Plan{
		timedPlan(1, "10:00", "11:00"),
		timedPlan(2, "11:00", "12:00"),
	}

	if conflicts := DetectConflicts(plans); len(conflicts) != 0 {
		t.Fatalf("back-to-back plans must not conflict, got %v", conflicts)
	}
}

func TestDetectConflictsIgnoresUntimedAndInactive(t *testing.T) {
	untimed := makePlan(1, 0, 10, "2026-08-28")
	inactive := timedPlan(2, "10:00", "11:00")
	inactive.IsActive = false
	plans := []models.Plan{untimed, inactive, timedPlan(3, "10:00", "11:00")}

	if conflicts := DetectConflicts(plans); len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
}

func TestAssembleTimelineGapWalk(t *testing.T) {
	// Study slot 19:00-22:00 with one plan from 19:30 to 20:00. Expected:
	// gap 19:00-19:30, plan, then the 2h tail split at hour boundaries.
	slots := []models.TimeSlot{studySlot(1, "19:00", "22:00")}
	plans := []models.Plan{timedPlan(1, "19:30", "20:00")}

	items := AssembleTimeline(plans, nil, slots)

	want := []struct {
		kind  string
		start string
		end   string
	}{
		{ItemKindEmpty, "19:00", "19:30"},
		{ItemKindPlan, "19:30", "20:00"},
		{ItemKindEmpty, "20:00", "21:00"},
		{ItemKindEmpty, "21:00", "22:00"},
	}

	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(items), items)
	}
	for i, w := range want {
		if items[i].Kind != w.kind || items[i].StartTime != w.start || items[i].EndTime != w.end {
			t.Fatalf("item %d: expected %s %s-%s, got %s %s-%s",
				i, w.kind, w.start, w.end, items[i].Kind, items[i].StartTime, items[i].EndTime)
		}
	}
}

func TestAssembleTimelineGapsTile(t *testing.T) {
	// Whatever the splitting, items inside one slot must tile the slot
	// exactly: contiguous, no overlap, durations summing to the slot.
	slots := []models.TimeSlot{studySlot(1, "13:10", "17:45")}
	plans := []models.Plan{
		timedPlan(1, "14:00", "14:45"),
		timedPlan(2, "16:10", "16:40"),
	}

	items := AssembleTimeline(plans, nil, slots)

	if len(items) == 0 {
		t.Fatal("expected items")
	}
	if items[0].StartTime != "13:10" {
		t.Fatalf("expected first item at slot start, got %s", items[0].StartTime)
	}
	total := 0
	for i, item := range items {
		if item.Kind == ItemKindEmpty && item.DurationMinutes > 60 {
			t.Fatalf("gap %d longer than an hour: %d minutes", i, item.DurationMinutes)
		}
		if i > 0 && items[i-1].EndTime != item.StartTime {
			t.Fatalf("items %d and %d not contiguous: %s vs %s", i-1, i, items[i-1].EndTime, item.StartTime)
		}
		total += item.DurationMinutes
	}
	if total != 275 {
		t.Fatalf("expected items to cover 275 minutes, got %d", total)
	}
}

func TestAssembleTimelineShortGapNotSplit(t *testing.T) {
	slots := []models.TimeSlot{studySlot(1, "19:00", "19:50")}

	items := AssembleTimeline(nil, nil, slots)

	if len(items) != 1 {
		t.Fatalf("expected a single gap, got %d items", len(items))
	}
	if items[0].Kind != ItemKindEmpty || items[0].DurationMinutes != 50 {
		t.Fatalf("expected one 50-minute gap, got %+v", items[0])
	}
}

func TestAssembleTimelineNoSlotsPlainMerge(t *testing.T) {
	plans := []models.Plan{timedPlan(1, "10:00", "11:00")}
	blocks := []models.NonStudyBlock{block(1, models.SlotKindMeal, "08:00", "09:00")}

	items := AssembleTimeline(plans, blocks, nil)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Kind != ItemKindBlock || items[1].Kind != ItemKindPlan {
		t.Fatalf("expected block then plan, got %s then %s", items[0].Kind, items[1].Kind)
	}
	for _, item := range items {
		if item.Kind == ItemKindEmpty {
			t.Fatalf("no gaps expected without slots, got %+v", item)
		}
	}
}

func TestAssembleTimelineFixedSlotOverride(t *testing.T) {
	// Academy slot 16:00-18:00 moved to 17:00 for the day: the template
	// position becomes free time and the override block renders instead.
	slotID := uint(7)
	slots := []models.TimeSlot{{
		BaseModel: models.BaseModel{ID: slotID},
		Kind:      models.SlotKindAcademy,
		StartTime: "16:00",
		EndTime:   "18:00",
		Label:     "Math academy",
		Active:    true,
	}}
	override := block(1, models.SlotKindAcademy, "17:00", "19:00")
	override.TimeSlotID = &slotID

	items := AssembleTimeline(nil, []models.NonStudyBlock{override}, slots)

	var gapMinutes int
	var sawOverride bool
	for _, item := range items {
		switch item.Kind {
		case ItemKindEmpty:
			gapMinutes += item.DurationMinutes
		case ItemKindBlock:
			if item.Block != nil && item.Block.ID == override.ID {
				sawOverride = true
				if item.StartTime != "17:00" {
					t.Fatalf("override should render at 17:00, got %s", item.StartTime)
				}
			}
		}
	}
	if gapMinutes != 120 {
		t.Fatalf("expected the vacated 2h slot as gaps, got %d minutes", gapMinutes)
	}
	if !sawOverride {
		t.Fatal("override block missing from timeline")
	}
}

func TestAssembleTimelineFixedSlotRendersTemplate(t *testing.T) {
	slots := []models.TimeSlot{{
		BaseModel: models.BaseModel{ID: 3},
		Kind:      models.SlotKindMeal,
		StartTime: "12:00",
		EndTime:   "13:00",
		Active:    true,
	}}

	items := AssembleTimeline(nil, nil, slots)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Kind != ItemKindBlock || items[0].BlockType != models.SlotKindMeal {
		t.Fatalf("expected rendered meal block, got %+v", items[0])
	}
	if items[0].Label != models.SlotKindMeal {
		t.Fatalf("expected kind as fallback label, got %q", items[0].Label)
	}
}

func TestAssembleTimelinePlanOutsideSlots(t *testing.T) {
	slots := []models.TimeSlot{studySlot(1, "19:00", "21:00")}
	early := timedPlan(9, "07:00", "07:30")

	items := AssembleTimeline([]models.Plan{early}, nil, slots)

	if len(items) == 0 || items[0].Kind != ItemKindPlan || items[0].StartTime != "07:00" {
		t.Fatalf("plan outside every slot should surface first, got %+v", items)
	}
}
