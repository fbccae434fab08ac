package services

import (
	"errors"
	"fmt"
	"time"

	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/services/notifications"
	"studyplan_go/utils"

	"gorm.io/gorm"
)

// Redistribution modes
const (
	RedistributionModeAuto   = "auto"   // push/pull the delta onto future plans in the group
	RedistributionModeManual = "manual" // park the delta on a new daily plan at a chosen date
	RedistributionModeWeekly = "weekly" // park the delta on a new weekly plan
)

// maxAutoTargets bounds how many future plans an auto redistribution touches.
const maxAutoTargets = 7

// RedistributionTarget describes how one future plan's range changes.
type RedistributionTarget struct {
	PlanID        uint      `json:"plan_id"`
	PlanDate      time.Time `json:"plan_date"`
	OriginalStart int       `json:"original_start"`
	OriginalEnd   int       `json:"original_end"`
	NewStart      int       `json:"new_start"`
	NewEnd        int       `json:"new_end"`
	Delta         int       `json:"delta"`
}

// RedistributionPreview is the computed outcome before anything is committed.
type RedistributionPreview struct {
	VolumeChange int                    `json:"volume_change"` // positive = shrink, negative = grow
	Targets      []RedistributionTarget `json:"targets"`
	Unassigned   int                    `json:"unassigned"` // remainder no target could absorb
}

// ComputeRedistribution distributes the volume delta of an edited plan over
// the ordered future targets. Shrinking the edited plan pushes work forward
// (targets grow); growing it borrows work back (targets shrink). Borrowed
// amounts are clamped so no target's volume ever drops below zero; whatever a
// clamped target could not give cascades to later targets, and any remainder
// after the last target is reported as unassigned.
func ComputeRedistribution(edited *models.Plan, newStart, newEnd int, targets []models.Plan) (*RedistributionPreview, error) {
	if newStart < 0 || newEnd < newStart {
		return nil, &InvalidRangeError{Start: newStart, End: newEnd}
	}

	volumeChange := edited.Volume() - (newEnd - newStart)
	preview := &RedistributionPreview{VolumeChange: volumeChange}
	if volumeChange == 0 || len(targets) == 0 {
		return preview, nil
	}

	abs := volumeChange
	if abs < 0 {
		abs = -abs
	}
	borrowing := volumeChange < 0

	perPlanChange := (abs + len(targets) - 1) / len(targets)
	assigned := make([]int, len(targets))
	remaining := abs

	for i := range targets {
		if remaining == 0 {
			break
		}
		change := perPlanChange
		if change > remaining {
			change = remaining
		}
		if borrowing && change > targets[i].Volume() {
			change = targets[i].Volume()
		}
		if change <= 0 {
			continue
		}
		assigned[i] = change
		remaining -= change
	}

	// Clamped targets may have left a remainder; let targets with spare
	// capacity absorb it rather than silently dropping work.
	if borrowing && remaining > 0 {
		for i := range targets {
			if remaining == 0 {
				break
			}
			spare := targets[i].Volume() - assigned[i]
			if spare <= 0 {
				continue
			}
			take := spare
			if take > remaining {
				take = remaining
			}
			assigned[i] += take
			remaining -= take
		}
	}

	for i := range targets {
		if assigned[i] == 0 {
			continue
		}
		delta := assigned[i]
		if borrowing {
			delta = -delta
		}
		preview.Targets = append(preview.Targets, RedistributionTarget{
			PlanID:        targets[i].ID,
			PlanDate:      targets[i].PlanDate,
			OriginalStart: targets[i].PlannedStart,
			OriginalEnd:   targets[i].PlannedEnd,
			NewStart:      targets[i].PlannedStart,
			NewEnd:        targets[i].PlannedEnd + delta,
			Delta:         delta,
		})
	}
	preview.Unassigned = remaining

	return preview, nil
}

// RedistributionService applies volume edits and their propagation.
type RedistributionService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewRedistributionService creates a service bound to the global database.
func NewRedistributionService() *RedistributionService {
	return &RedistributionService{
		db:    database.DB,
		audit: NewAuditService(),
	}
}

// Preview computes the redistribution for an edited range without mutating
// anything.
func (rs *RedistributionService) Preview(scope Scope, planID uint, newStart, newEnd int) (*RedistributionPreview, error) {
	plan, err := rs.fetchPlan(scope, planID)
	if err != nil {
		return nil, err
	}

	targets, err := rs.fetchAutoTargets(plan)
	if err != nil {
		return nil, err
	}

	return ComputeRedistribution(plan, newStart, newEnd, targets)
}

// Apply commits the edited plan's new range together with the propagation
// chosen by mode, as one bulk transaction. The returned BulkResult carries
// step counts; on failure its Error is a *PartialBatchError.
func (rs *RedistributionService) Apply(scope Scope, planID uint, newStart, newEnd int, mode string, targetDate *time.Time) (BulkResult, error) {
	plan, err := rs.fetchPlan(scope, planID)
	if err != nil {
		return BulkResult{}, err
	}
	if newStart < 0 || newEnd < newStart {
		return BulkResult{}, &InvalidRangeError{Start: newStart, End: newEnd}
	}

	originalVolume := plan.Volume()
	volumeChange := originalVolume - (newEnd - newStart)

	steps := []BulkStep{{
		Name: "update-edited-plan",
		Run: func(tx *gorm.DB) error {
			return tx.Model(&models.Plan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
				"planned_start":   newStart,
				"planned_end":     newEnd,
				"original_volume": originalVolume,
			}).Error
		},
	}}

	var preview *RedistributionPreview

	switch mode {
	case RedistributionModeAuto:
		targets, err := rs.fetchAutoTargets(plan)
		if err != nil {
			return BulkResult{}, err
		}
		preview, err = ComputeRedistribution(plan, newStart, newEnd, targets)
		if err != nil {
			return BulkResult{}, err
		}
		for _, target := range preview.Targets {
			target := target
			steps = append(steps, BulkStep{
				Name: fmt.Sprintf("update-target-%d", target.PlanID),
				Run: func(tx *gorm.DB) error {
					return tx.Model(&models.Plan{}).Where("id = ?", target.PlanID).
						Update("planned_end", target.NewEnd).Error
				},
			})
		}

	case RedistributionModeManual, RedistributionModeWeekly:
		if volumeChange != 0 {
			abs := volumeChange
			if abs < 0 {
				abs = -abs
			}
			spawned := models.Plan{
				TenantID:      plan.TenantID,
				StudentID:     plan.StudentID,
				PlanGroupID:   plan.PlanGroupID,
				ContainerType: models.ContainerDaily,
				PlanDate:      plan.PlanDate,
				Title:         plan.Title,
				PlannedStart:  newEnd,
				PlannedEnd:    newEnd + abs,
				Status:        models.PlanStatusPending,
				IsActive:      true,
			}
			if mode == RedistributionModeWeekly {
				spawned.ContainerType = models.ContainerWeekly
			} else {
				if targetDate == nil {
					return BulkResult{}, errors.New("manual redistribution requires a target date")
				}
				spawned.PlanDate = utils.DateOnly(*targetDate)
			}
			steps = append(steps, BulkStep{
				Name: "create-parked-plan",
				Run: func(tx *gorm.DB) error {
					return tx.Create(&spawned).Error
				},
			})
		}

	default:
		return BulkResult{}, fmt.Errorf("unknown redistribution mode %q", mode)
	}

	result := Commit(rs.db, "redistribution", steps)
	if !result.Success {
		return result, result.Error
	}

	rs.audit.Record(scope, ActionVolumeAdjusted, "plan", plan.ID, map[string]interface{}{
		"old_range":     []int{plan.PlannedStart, plan.PlannedEnd},
		"new_range":     []int{newStart, newEnd},
		"volume_change": volumeChange,
		"mode":          mode,
	})
	if preview != nil && len(preview.Targets) > 0 {
		changes := make([]map[string]interface{}, 0, len(preview.Targets))
		for _, t := range preview.Targets {
			changes = append(changes, map[string]interface{}{
				"plan_id": t.PlanID,
				"date":    t.PlanDate.Format("2006-01-02"),
				"delta":   t.Delta,
			})
		}
		rs.audit.Record(scope, ActionRedistributed, "plan", plan.ID, map[string]interface{}{
			"targets":    changes,
			"unassigned": preview.Unassigned,
		})
	}

	if preview != nil && len(preview.Targets) > 0 {
		notifyTenantStaff(plan.TenantID,
			"Plan volume redistributed",
			fmt.Sprintf("%q changed by %d; %d future plan(s) were adjusted.",
				plan.Title, volumeChange, len(preview.Targets)),
			notifications.TypeInfo)
	}

	var targets []RedistributionTarget
	if preview != nil {
		targets = preview.Targets
	}
	for _, day := range redistributionDates(plan.PlanDate, targets) {
		InvalidateTimeline(plan.StudentID, day)
		BroadcastPlanEvent("redistributed", plan.StudentID, day)
	}

	return result, nil
}

// redistributionDates lists each distinct day whose cached timeline a
// redistribution touches: the edited plan's own date plus every adjusted
// target's date.
func redistributionDates(planDate time.Time, targets []RedistributionTarget) []time.Time {
	first := utils.DateOnly(planDate)
	dates := []time.Time{first}
	seen := map[string]bool{first.Format("2006-01-02"): true}
	for _, target := range targets {
		day := utils.DateOnly(target.PlanDate)
		key := day.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, day)
	}
	return dates
}

func (rs *RedistributionService) fetchPlan(scope Scope, planID uint) (*models.Plan, error) {
	var plan models.Plan
	err := rs.db.Where("id = ? AND tenant_id = ?", planID, scope.TenantID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "plan", ID: planID}
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// fetchAutoTargets returns up to maxAutoTargets future, active plans in the
// edited plan's group, ordered by date ascending. Ungrouped plans have no
// targets; auto mode then degrades to a plain range update.
func (rs *RedistributionService) fetchAutoTargets(plan *models.Plan) ([]models.Plan, error) {
	if plan.PlanGroupID == nil {
		return nil, nil
	}

	today := utils.DateOnly(time.Now())
	var targets []models.Plan
	err := rs.db.Where(
		"plan_group_id = ? AND id != ? AND is_active = ? AND container_type = ? AND plan_date > ?",
		*plan.PlanGroupID, plan.ID, true, models.ContainerDaily, today,
	).Order("plan_date ASC").Limit(maxAutoTargets).Find(&targets).Error
	if err != nil {
		return nil, err
	}
	return targets, nil
}
