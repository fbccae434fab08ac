package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func timelineCacheKey(studentID uint, date time.Time) string {
	return fmt.Sprintf("timeline:%d:%s", studentID, date.Format("2006-01-02"))
}

// PlanEventBroadcaster pushes plan-change events to connected clients.
type PlanEventBroadcaster interface {
	BroadcastPlanEvent(action string, studentID uint, date string)
}

var planEvents PlanEventBroadcaster

// SetPlanEventBroadcaster wires the websocket hub in at startup. Unset (CLI,
// tests) broadcasts are dropped.
func SetPlanEventBroadcaster(b PlanEventBroadcaster) {
	planEvents = b
}

// BroadcastPlanEvent pushes a plan-change event for a student's day. Every
// mutation that invalidates a day's timeline should also broadcast it so open
// planner views refresh without polling.
func BroadcastPlanEvent(action string, studentID uint, date time.Time) {
	if planEvents == nil {
		return
	}
	planEvents.BroadcastPlanEvent(action, studentID, utils.DateOnly(date).Format("2006-01-02"))
}

// InvalidateTimeline drops the cached merged timeline for a student's day.
// Every plan mutation for that day must call this.
func InvalidateTimeline(studentID uint, date time.Time) {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return
	}
	if err := redisClient.Del(context.Background(), timelineCacheKey(studentID, utils.DateOnly(date))).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate timeline cache")
	}
}

// PlanService owns container moves and the assembled day view.
type PlanService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewPlanService creates a service bound to the global database.
func NewPlanService() *PlanService {
	return &PlanService{
		db:    database.DB,
		audit: NewAuditService(),
	}
}

// MoveToContainer moves a plan between the daily/weekly/unfinished buckets.
// Moves are always explicit and audited; times only exist on daily plans and
// are cleared when the plan leaves that container.
func (ps *PlanService) MoveToContainer(scope Scope, planID uint, toContainer string, targetDate *time.Time) (*models.Plan, error) {
	if !utils.IsValidContainer(toContainer) {
		return nil, fmt.Errorf("unknown container %q", toContainer)
	}

	var plan models.Plan
	err := ps.db.Where("id = ? AND tenant_id = ?", planID, scope.TenantID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "plan", ID: planID}
	}
	if err != nil {
		return nil, err
	}

	fromContainer := plan.ContainerType
	fromDate := plan.PlanDate

	updates := map[string]interface{}{"container_type": toContainer}
	if toContainer == models.ContainerDaily {
		date := plan.PlanDate
		if targetDate != nil {
			date = utils.DateOnly(*targetDate)
		}
		updates["plan_date"] = date
		plan.PlanDate = date
	} else {
		updates["start_time"] = nil
		updates["end_time"] = nil
		plan.StartTime = nil
		plan.EndTime = nil
	}
	plan.ContainerType = toContainer

	if err := ps.db.Model(&models.Plan{}).Where("id = ?", plan.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	ps.audit.Record(scope, ActionContainerMoved, "plan", plan.ID, map[string]interface{}{
		"from": fromContainer,
		"to":   toContainer,
		"date": plan.PlanDate.Format("2006-01-02"),
	})

	InvalidateTimeline(plan.StudentID, fromDate)
	BroadcastPlanEvent("moved", plan.StudentID, fromDate)
	if !utils.DateOnly(fromDate).Equal(utils.DateOnly(plan.PlanDate)) {
		InvalidateTimeline(plan.StudentID, plan.PlanDate)
		BroadcastPlanEvent("moved", plan.StudentID, plan.PlanDate)
	}

	return &plan, nil
}

// MoveAdHocToContainer is MoveToContainer for ad-hoc plans.
func (ps *PlanService) MoveAdHocToContainer(scope Scope, planID uint, toContainer string, targetDate *time.Time) (*models.AdHocPlan, error) {
	if !utils.IsValidContainer(toContainer) {
		return nil, fmt.Errorf("unknown container %q", toContainer)
	}

	var plan models.AdHocPlan
	err := ps.db.Where("id = ? AND tenant_id = ?", planID, scope.TenantID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "ad-hoc plan", ID: planID}
	}
	if err != nil {
		return nil, err
	}

	fromContainer := plan.ContainerType
	updates := map[string]interface{}{"container_type": toContainer}
	if toContainer == models.ContainerDaily && targetDate != nil {
		date := utils.DateOnly(*targetDate)
		updates["plan_date"] = date
		plan.PlanDate = date
	}
	plan.ContainerType = toContainer

	if err := ps.db.Model(&models.AdHocPlan{}).Where("id = ?", plan.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	ps.audit.Record(scope, ActionContainerMoved, "adhoc_plan", plan.ID, map[string]interface{}{
		"from": fromContainer,
		"to":   toContainer,
		"date": plan.PlanDate.Format("2006-01-02"),
	})

	InvalidateTimeline(plan.StudentID, plan.PlanDate)
	BroadcastPlanEvent("moved", plan.StudentID, plan.PlanDate)

	return &plan, nil
}

// GetDayTimeline assembles the merged timeline for one student's day,
// serving from the Redis cache when possible.
func (ps *PlanService) GetDayTimeline(scope Scope, studentID uint, date time.Time) ([]MergedItem, error) {
	day := utils.DateOnly(date)
	redisClient := database.GetRedisClient()
	key := timelineCacheKey(studentID, day)

	if redisClient != nil {
		if cached, err := redisClient.Get(context.Background(), key).Result(); err == nil {
			var items []MergedItem
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
		}
	}

	plans, blocks, slots, err := ps.fetchDay(scope, studentID, day)
	if err != nil {
		return nil, err
	}

	items := AssembleTimeline(plans, blocks, slots)

	if redisClient != nil {
		if data, err := json.Marshal(items); err == nil {
			ttl := config.AppConfig.TimelineCacheTTL
			if err := redisClient.Set(context.Background(), key, data, ttl).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to cache timeline")
			}
		}
	}

	return items, nil
}

// GetDayConflicts flags overlapping timed plans for one student's day.
func (ps *PlanService) GetDayConflicts(scope Scope, studentID uint, date time.Time) (map[uint]*ConflictInfo, error) {
	day := utils.DateOnly(date)
	var plans []models.Plan
	err := ps.db.Where(
		"tenant_id = ? AND student_id = ? AND container_type = ? AND is_active = ? AND plan_date = ?",
		scope.TenantID, studentID, models.ContainerDaily, true, day,
	).Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return DetectConflicts(plans), nil
}

func (ps *PlanService) fetchDay(scope Scope, studentID uint, day time.Time) ([]models.Plan, []models.NonStudyBlock, []models.TimeSlot, error) {
	var plans []models.Plan
	err := ps.db.Where(
		"tenant_id = ? AND student_id = ? AND container_type = ? AND is_active = ? AND plan_date = ?",
		scope.TenantID, studentID, models.ContainerDaily, true, day,
	).Order("sequence ASC").Find(&plans).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var blocks []models.NonStudyBlock
	err = ps.db.Where(
		"tenant_id = ? AND student_id = ? AND block_date = ?",
		scope.TenantID, studentID, day,
	).Find(&blocks).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var slots []models.TimeSlot
	err = ps.db.Where(
		"tenant_id = ? AND student_id = ? AND weekday = ? AND active = ?",
		scope.TenantID, studentID, int(day.Weekday()), true,
	).Find(&slots).Error
	if err != nil {
		return nil, nil, nil, err
	}

	return plans, blocks, slots, nil
}
