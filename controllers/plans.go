package controllers

import (
	"errors"
	"strconv"
	"time"

	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"
	"studyplan_go/services"
	"studyplan_go/utils"

	"github.com/gofiber/fiber/v2"
)

type PlanController struct{}

// planError maps service errors to HTTP responses.
func planError(c *fiber.Ctx, err error) error {
	var invalidRange *services.InvalidRangeError
	var notFound *services.NotFoundError
	var partial *services.PartialBatchError

	switch {
	case errors.As(err, &invalidRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invalidRange.Error()})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.As(err, &partial):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":           partial.Error(),
			"failed_step":     partial.FailedStep,
			"completed_count": partial.CompletedCount,
			"total_count":     partial.TotalCount,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

func parseDateQuery(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return utils.DateOnly(time.Now()), nil
	}
	date, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}

// GetPlans lists plans filtered by student, date and container
func (pc *PlanController) GetPlans(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	query := database.DB.Where("tenant_id = ?", scope.TenantID)

	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if container := c.Query("container"); container != "" {
		if !utils.IsValidContainer(container) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid container"})
		}
		query = query.Where("container_type = ?", container)
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := utils.ParseDate(dateStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		query = query.Where("plan_date = ?", date)
	}

	var plans []models.Plan
	if err := query.Order("plan_date ASC, sequence ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plans"})
	}

	return c.JSON(fiber.Map{"plans": plans, "total": len(plans)})
}

// GetPlan returns a single plan
func (pc *PlanController) GetPlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := database.DB.Preload("PlanGroup").Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	return c.JSON(fiber.Map{"plan": plan})
}

// CreatePlanRequest is the plan creation body
type CreatePlanRequest struct {
	StudentID     uint    `json:"student_id" validate:"required"`
	PlanGroupID   *uint   `json:"plan_group_id"`
	ContainerType string  `json:"container_type"`
	PlanDate      string  `json:"plan_date" validate:"required"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	Title         string  `json:"title"`
	PlannedStart  int     `json:"planned_start"`
	PlannedEnd    int     `json:"planned_end"`
}

// CreatePlan creates a new plan
func (pc *PlanController) CreatePlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.PlannedStart < 0 || req.PlannedEnd < req.PlannedStart {
		return planError(c, &services.InvalidRangeError{Start: req.PlannedStart, End: req.PlannedEnd})
	}

	container := req.ContainerType
	if container == "" {
		container = models.ContainerDaily
	}
	if !utils.IsValidContainer(container) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid container"})
	}

	planDate, err := utils.ParseDate(req.PlanDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan_date, expected YYYY-MM-DD"})
	}

	plan := models.Plan{
		TenantID:      scope.TenantID,
		StudentID:     req.StudentID,
		PlanGroupID:   req.PlanGroupID,
		ContainerType: container,
		PlanDate:      planDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Title:         req.Title,
		PlannedStart:  req.PlannedStart,
		PlannedEnd:    req.PlannedEnd,
		Status:        models.PlanStatusPending,
		IsActive:      true,
	}

	if err := database.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create plan"})
	}

	services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
	services.BroadcastPlanEvent("created", plan.StudentID, plan.PlanDate)
	middleware.LogActivity(c, "CREATE", "plans", plan.ID, fiber.Map{"title": plan.Title})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

// UpdatePlanRequest is the partial update body. Volume edits go through the
// redistribution endpoint, not here.
type UpdatePlanRequest struct {
	Title           *string `json:"title"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Status          *string `json:"status"`
	CompletedAmount *int    `json:"completed_amount"`
}

// UpdatePlan updates plan metadata and progress
func (pc *PlanController) UpdatePlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	var req UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Status != nil {
		if !utils.IsValidPlanStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		updates["status"] = *req.Status
	}
	if req.CompletedAmount != nil {
		if *req.CompletedAmount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "completed_amount must be >= 0"})
		}
		updates["completed_amount"] = *req.CompletedAmount
	}

	if len(updates) == 0 {
		return c.JSON(fiber.Map{"plan": plan})
	}

	if err := database.DB.Model(&plan).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update plan"})
	}

	services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
	services.BroadcastPlanEvent("updated", plan.StudentID, plan.PlanDate)
	middleware.LogActivity(c, "UPDATE", "plans", plan.ID, updates)

	return c.JSON(fiber.Map{"plan": plan})
}

// DeletePlan soft-deletes a plan
func (pc *PlanController) DeletePlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var plan models.Plan
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}

	if err := database.DB.Delete(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete plan"})
	}

	services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
	services.BroadcastPlanEvent("deleted", plan.StudentID, plan.PlanDate)
	middleware.LogActivity(c, "DELETE", "plans", plan.ID, nil)

	return c.JSON(fiber.Map{"message": "Plan deleted successfully"})
}

// RedistributionRequest is the volume edit body
type RedistributionRequest struct {
	NewStart   int    `json:"new_start"`
	NewEnd     int    `json:"new_end"`
	Mode       string `json:"mode"`
	TargetDate string `json:"target_date"`
}

// PreviewRedistribution computes the propagation for a volume edit without
// committing anything
func (pc *PlanController) PreviewRedistribution(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req RedistributionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	preview, err := services.NewRedistributionService().Preview(scope, id, req.NewStart, req.NewEnd)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{"preview": preview})
}

// ApplyRedistribution commits a volume edit with its propagation
func (pc *PlanController) ApplyRedistribution(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req RedistributionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	mode := req.Mode
	if mode == "" {
		mode = services.RedistributionModeAuto
	}

	var targetDate *time.Time
	if req.TargetDate != "" {
		date, err := utils.ParseDate(req.TargetDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target_date, expected YYYY-MM-DD"})
		}
		targetDate = &date
	}

	result, err := services.NewRedistributionService().Apply(scope, id, req.NewStart, req.NewEnd, mode, targetDate)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Redistribution applied",
		"result":  result,
	})
}

// MoveRequest is the container move body
type MoveRequest struct {
	Container  string `json:"container"`
	TargetDate string `json:"target_date"`
}

// MovePlan moves a plan between containers
func (pc *PlanController) MovePlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var targetDate *time.Time
	if req.TargetDate != "" {
		date, err := utils.ParseDate(req.TargetDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target_date, expected YYYY-MM-DD"})
		}
		targetDate = &date
	}

	plan, err := services.NewPlanService().MoveToContainer(scope, id, req.Container, targetDate)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Plan moved", "plan": plan})
}

// ReorderRequest is the day reorder body
type ReorderRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	PlanIDs   []uint `json:"plan_ids" validate:"required"`
	Filter    string `json:"filter"`
}

// ReorderPlans applies a new ordering to one student's day
func (pc *PlanController) ReorderPlans(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	result, err := services.NewReorderService().ReorderDay(scope, req.StudentID, date, req.PlanIDs, req.Filter)
	if err != nil {
		var partial *services.PartialBatchError
		if errors.As(err, &partial) {
			return planError(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Plans reordered", "result": result})
}

// GetTimeline returns the merged day view for a student
func (pc *PlanController) GetTimeline(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	studentID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	date, err := parseDateQuery(c, "date")
	if err != nil {
		return err
	}

	items, err := services.NewPlanService().GetDayTimeline(scope, studentID, date)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{
		"student_id": studentID,
		"date":       date.Format("2006-01-02"),
		"items":      items,
	})
}

// GetConflicts returns the overlap map for a student's day
func (pc *PlanController) GetConflicts(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	studentID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	date, err := parseDateQuery(c, "date")
	if err != nil {
		return err
	}

	conflicts, err := services.NewPlanService().GetDayConflicts(scope, studentID, date)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{
		"student_id": studentID,
		"date":       date.Format("2006-01-02"),
		"conflicts":  conflicts,
	})
}
