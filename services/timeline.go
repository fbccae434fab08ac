package services

import (
	"fmt"
	"sort"
	"strings"

	"studyplan_go/models"
	"studyplan_go/utils"
)

// Merged timeline item kinds
const (
	ItemKindPlan  = "plan"
	ItemKindBlock = "block"
	ItemKindEmpty = "empty"
)

// MergedItem is one entry of a student's single-day timeline: a study plan,
// a fixed non-study block, or a free gap. SortKey is minutes since midnight.
type MergedItem struct {
	Kind            string `json:"kind"`
	SortKey         int    `json:"sort_key"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Label           string `json:"label,omitempty"`
	BlockType       string `json:"block_type,omitempty"`
	TimeSlotID      uint   `json:"time_slot_id,omitempty"`

	Plan  *models.Plan          `json:"plan,omitempty"`
	Block *models.NonStudyBlock `json:"block,omitempty"`
}

// ConflictInfo describes which other plans a plan overlaps with. Overlaps
// are advisory; they are flagged, never rejected.
type ConflictInfo struct {
	OverlapsWith []uint `json:"overlaps_with"`
	Message      string `json:"message"`
}

// occupied is an interval claimed by a plan or block, in minutes since midnight.
type occupied struct {
	start int
	end   int
	plan  *models.Plan
	block *models.NonStudyBlock
}

// DetectConflicts builds a symmetric conflict map over same-day plans with
// assigned times: if A overlaps B, both IDs appear as keys referencing each
// other. Inactive plans and plans without times are ignored.
func DetectConflicts(plans []models.Plan) map[uint]*ConflictInfo {
	type timed struct {
		plan  *models.Plan
		start int
		end   int
	}

	var entries []timed
	for i := range plans {
		p := &plans[i]
		if !p.IsActive || p.StartTime == nil || p.EndTime == nil {
			continue
		}
		start, err := utils.MinutesOfDay(*p.StartTime)
		if err != nil {
			continue
		}
		end, err := utils.MinutesOfDay(*p.EndTime)
		if err != nil {
			continue
		}
		entries = append(entries, timed{plan: p, start: start, end: end})
	}

	conflicts := make(map[uint]*ConflictInfo)
	record := func(p *models.Plan, other *models.Plan) {
		info, ok := conflicts[p.ID]
		if !ok {
			info = &ConflictInfo{}
			conflicts[p.ID] = info
		}
		info.OverlapsWith = append(info.OverlapsWith, other.ID)
	}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.start < b.end && b.start < a.end {
				record(a.plan, b.plan)
				record(b.plan, a.plan)
			}
		}
	}

	for id, info := range conflicts {
		labels := make([]string, 0, len(info.OverlapsWith))
		for _, otherID := range info.OverlapsWith {
			labels = append(labels, fmt.Sprintf("plan %d", otherID))
		}
		conflicts[id].Message = fmt.Sprintf("Time overlaps with %s", strings.Join(labels, ", "))
	}

	return conflicts
}

// AssembleTimeline merges one day's plans, non-study blocks and planner time
// slots into a single sequence ordered by SortKey. Flexible (study) slots get
// free gaps computed between their occupied intervals; fixed slots render
// from the template unless a per-day override moved them. Plans without
// assigned times carry no interval and do not appear.
//
// If no time slots are configured the result is a plain merge of plans and
// blocks sorted by start time, with no gap computation.
func AssembleTimeline(plans []models.Plan, blocks []models.NonStudyBlock, slots []models.TimeSlot) []MergedItem {
	planIvs := collectPlanIntervals(plans)
	blockIvs := collectBlockIntervals(blocks)

	if len(slots) == 0 {
		items := make([]MergedItem, 0, len(planIvs)+len(blockIvs))
		for _, occ := range planIvs {
			items = append(items, planItem(occ, occ.start, occ.end))
		}
		for _, occ := range blockIvs {
			items = append(items, blockItem(occ, occ.start, occ.end))
		}
		sortItems(items)
		return items
	}

	sortedSlots := make([]models.TimeSlot, len(slots))
	copy(sortedSlots, slots)
	sort.SliceStable(sortedSlots, func(i, j int) bool {
		si, _ := utils.MinutesOfDay(sortedSlots[i].StartTime)
		sj, _ := utils.MinutesOfDay(sortedSlots[j].StartTime)
		return si < sj
	})

	var items []MergedItem
	usedPlans := make(map[uint]bool)
	usedBlocks := make(map[uint]bool)

	for i := range sortedSlots {
		slot := &sortedSlots[i]
		slotStart, err := utils.MinutesOfDay(slot.StartTime)
		if err != nil {
			continue
		}
		slotEnd, err := utils.MinutesOfDay(slot.EndTime)
		if err != nil || slotEnd <= slotStart {
			continue
		}

		if slot.IsFlexible() {
			items = append(items, walkFlexibleSlot(slot, slotStart, slotEnd, planIvs, blockIvs, usedPlans, usedBlocks)...)
			continue
		}

		items = append(items, renderFixedSlot(slot, slotStart, slotEnd, blockIvs)...)
	}

	// Plans and blocks that fell outside every slot still surface at their
	// own position.
	for _, occ := range planIvs {
		if !usedPlans[occ.plan.ID] {
			items = append(items, planItem(occ, occ.start, occ.end))
		}
	}
	for _, occ := range blockIvs {
		if !usedBlocks[occ.block.ID] {
			items = append(items, blockItem(occ, occ.start, occ.end))
		}
	}

	sortItems(items)
	return items
}

func collectPlanIntervals(plans []models.Plan) []occupied {
	var out []occupied
	for i := range plans {
		p := &plans[i]
		if !p.IsActive || p.StartTime == nil || p.EndTime == nil {
			continue
		}
		start, err := utils.MinutesOfDay(*p.StartTime)
		if err != nil {
			continue
		}
		end, err := utils.MinutesOfDay(*p.EndTime)
		if err != nil || end <= start {
			continue
		}
		out = append(out, occupied{start: start, end: end, plan: p})
	}
	return out
}

func collectBlockIntervals(blocks []models.NonStudyBlock) []occupied {
	var out []occupied
	for i := range blocks {
		b := &blocks[i]
		start, err := utils.MinutesOfDay(b.StartTime)
		if err != nil {
			continue
		}
		end, err := utils.MinutesOfDay(b.EndTime)
		if err != nil || end <= start {
			continue
		}
		out = append(out, occupied{start: start, end: end, block: b})
	}
	return out
}

// walkFlexibleSlot clips the slot's occupied intervals to the slot bounds and
// walks them left to right, emitting a free gap for every hole and a trailing
// gap up to the slot end.
func walkFlexibleSlot(slot *models.TimeSlot, slotStart, slotEnd int, planIvs, blockIvs []occupied, usedPlans, usedBlocks map[uint]bool) []MergedItem {
	var inside []occupied
	for _, occ := range planIvs {
		if occ.start < slotEnd && occ.end > slotStart {
			usedPlans[occ.plan.ID] = true
			inside = append(inside, clip(occ, slotStart, slotEnd))
		}
	}
	for _, occ := range blockIvs {
		if occ.start < slotEnd && occ.end > slotStart {
			usedBlocks[occ.block.ID] = true
			inside = append(inside, clip(occ, slotStart, slotEnd))
		}
	}

	sort.SliceStable(inside, func(i, j int) bool { return inside[i].start < inside[j].start })

	var items []MergedItem
	cursor := slotStart
	for _, occ := range inside {
		if occ.start > cursor {
			items = append(items, emptySlots(cursor, occ.start, slot.ID)...)
		}
		if occ.plan != nil {
			items = append(items, planItem(occ, occ.start, occ.end))
		} else {
			items = append(items, blockItem(occ, occ.start, occ.end))
		}
		if occ.end > cursor {
			cursor = occ.end
		}
	}
	if cursor < slotEnd {
		items = append(items, emptySlots(cursor, slotEnd, slot.ID)...)
	}
	return items
}

// renderFixedSlot renders a fixed template slot. When an override block moved
// the slot to another start time, the template's original position becomes
// free time and the override surfaces separately at its new position.
func renderFixedSlot(slot *models.TimeSlot, slotStart, slotEnd int, blockIvs []occupied) []MergedItem {
	for _, occ := range blockIvs {
		if occ.block.TimeSlotID == nil || *occ.block.TimeSlotID != slot.ID {
			continue
		}
		if occ.start != slotStart {
			// The work moved: the old position is now a gap.
			return emptySlots(slotStart, slotEnd, slot.ID)
		}
		// Override sits at the template position; the block itself renders.
		return nil
	}

	// No override: render the template as-is.
	label := slot.Label
	if label == "" {
		label = slot.Kind
	}
	return []MergedItem{{
		Kind:            ItemKindBlock,
		SortKey:         slotStart,
		StartTime:       utils.FormatMinutes(slotStart),
		EndTime:         utils.FormatMinutes(slotEnd),
		DurationMinutes: slotEnd - slotStart,
		Label:           label,
		BlockType:       slot.Kind,
		TimeSlotID:      slot.ID,
	}}
}

// emptySlots emits the free range [start, end) split into hour-aligned
// segments when longer than one hour, so no single gap spans more than an
// hour. Segments are contiguous and sum exactly to the gap's duration.
func emptySlots(start, end int, slotID uint) []MergedItem {
	if end <= start {
		return nil
	}

	var items []MergedItem
	emit := func(segStart, segEnd int) {
		items = append(items, MergedItem{
			Kind:            ItemKindEmpty,
			SortKey:         segStart,
			StartTime:       utils.FormatMinutes(segStart),
			EndTime:         utils.FormatMinutes(segEnd),
			DurationMinutes: segEnd - segStart,
			TimeSlotID:      slotID,
		})
	}

	if end-start <= 60 {
		emit(start, end)
		return items
	}

	cursor := start
	for cursor < end {
		boundary := cursor - cursor%60 + 60
		if boundary > end {
			boundary = end
		}
		emit(cursor, boundary)
		cursor = boundary
	}
	return items
}

func clip(occ occupied, lo, hi int) occupied {
	if occ.start < lo {
		occ.start = lo
	}
	if occ.end > hi {
		occ.end = hi
	}
	return occ
}

func planItem(occ occupied, start, end int) MergedItem {
	return MergedItem{
		Kind:            ItemKindPlan,
		SortKey:         start,
		StartTime:       utils.FormatMinutes(start),
		EndTime:         utils.FormatMinutes(end),
		DurationMinutes: end - start,
		Label:           occ.plan.Title,
		Plan:            occ.plan,
	}
}

func blockItem(occ occupied, start, end int) MergedItem {
	label := occ.block.Label
	if label == "" {
		label = occ.block.Type
	}
	return MergedItem{
		Kind:            ItemKindBlock,
		SortKey:         start,
		StartTime:       utils.FormatMinutes(start),
		EndTime:         utils.FormatMinutes(end),
		DurationMinutes: end - start,
		Label:           label,
		BlockType:       occ.block.Type,
		Block:           occ.block,
	}
}

func sortItems(items []MergedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortKey != items[j].SortKey {
			return items[i].SortKey < items[j].SortKey
		}
		// Occupied items come before gaps starting at the same minute.
		return items[i].Kind != ItemKindEmpty && items[j].Kind == ItemKindEmpty
	})
}
