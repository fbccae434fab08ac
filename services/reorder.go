package services

import (
	"errors"
	"fmt"
	"time"

	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/utils"

	"gorm.io/gorm"
)

// defaultPlanDuration is used for plans that had no time range before the
// reorder assigned them one.
const defaultPlanDuration = 60

// FilterAll is the unfiltered day view; reordering is only allowed there so
// plans cannot be scheduled out of the visible context they were dropped in.
const FilterAll = "all"

// RecalculatePlanTimes rewrites start/end times for plans in the given order
// so they are contiguous from the cursor, preserving each plan's original
// duration. The input order is the new visual order; the returned slice is
// the same plans with updated times and sequence numbers.
func RecalculatePlanTimes(ordered []models.Plan, cursor int) []models.Plan {
	out := make([]models.Plan, len(ordered))
	for i := range ordered {
		p := ordered[i]
		duration := defaultPlanDuration
		if p.StartTime != nil && p.EndTime != nil {
			start, errS := utils.MinutesOfDay(*p.StartTime)
			end, errE := utils.MinutesOfDay(*p.EndTime)
			if errS == nil && errE == nil && end > start {
				duration = end - start
			}
		}
		start := utils.FormatMinutes(cursor)
		end := utils.FormatMinutes(cursor + duration)
		p.StartTime = &start
		p.EndTime = &end
		p.Sequence = i
		cursor += duration
		out[i] = p
	}
	return out
}

// ReorderService recomputes same-day plan times after a drag reorder.
type ReorderService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewReorderService creates a service bound to the global database.
func NewReorderService() *ReorderService {
	return &ReorderService{
		db:    database.DB,
		audit: NewAuditService(),
	}
}

// ReorderDay applies a new ordering of one student's daily plans. Completed
// plans keep their position and are excluded from the walk; planIDs must be
// exactly the active (non-completed) subset of that day. A non-default
// filter disables reordering entirely.
func (rs *ReorderService) ReorderDay(scope Scope, studentID uint, date time.Time, planIDs []uint, filter string) (BulkResult, error) {
	if filter != "" && filter != FilterAll {
		return BulkResult{}, fmt.Errorf("reordering is disabled while the %q filter is applied", filter)
	}

	day := utils.DateOnly(date)
	var plans []models.Plan
	err := rs.db.Where(
		"tenant_id = ? AND student_id = ? AND container_type = ? AND is_active = ? AND plan_date = ?",
		scope.TenantID, studentID, models.ContainerDaily, true, day,
	).Order("sequence ASC").Find(&plans).Error
	if err != nil {
		return BulkResult{}, err
	}

	byID := make(map[uint]*models.Plan, len(plans))
	activeCount := 0
	for i := range plans {
		p := &plans[i]
		byID[p.ID] = p
		if p.Status != models.PlanStatusCompleted {
			activeCount++
		}
	}

	if len(planIDs) != activeCount {
		return BulkResult{}, errors.New("reorder must include every non-completed plan of the day exactly once")
	}

	ordered := make([]models.Plan, 0, len(planIDs))
	seen := make(map[uint]bool, len(planIDs))
	cursor := -1
	for _, id := range planIDs {
		p, ok := byID[id]
		if !ok {
			return BulkResult{}, &NotFoundError{Resource: "plan", ID: id}
		}
		if p.Status == models.PlanStatusCompleted {
			return BulkResult{}, fmt.Errorf("plan %d is completed and cannot be reordered", id)
		}
		if seen[id] {
			return BulkResult{}, fmt.Errorf("plan %d appears twice in the new order", id)
		}
		seen[id] = true
		ordered = append(ordered, *p)

		if p.StartTime != nil {
			if start, err := utils.MinutesOfDay(*p.StartTime); err == nil && (cursor == -1 || start < cursor) {
				cursor = start
			}
		}
	}
	if cursor == -1 {
		cursor = 9 * 60
	}

	recomputed := RecalculatePlanTimes(ordered, cursor)

	steps := make([]BulkStep, 0, len(recomputed))
	for i := range recomputed {
		p := recomputed[i]
		steps = append(steps, BulkStep{
			Name: fmt.Sprintf("reorder-plan-%d", p.ID),
			Run: func(tx *gorm.DB) error {
				return tx.Model(&models.Plan{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
					"start_time": p.StartTime,
					"end_time":   p.EndTime,
					"sequence":   p.Sequence,
				}).Error
			},
		})
	}

	result := Commit(rs.db, "reorder", steps)
	if !result.Success {
		return result, result.Error
	}

	rs.audit.Record(scope, ActionReordered, "plan", 0, map[string]interface{}{
		"student_id": studentID,
		"date":       day.Format("2006-01-02"),
		"order":      planIDs,
	})

	InvalidateTimeline(studentID, day)
	BroadcastPlanEvent("reordered", studentID, day)

	return result, nil
}
