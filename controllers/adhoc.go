package controllers

import (
	"time"

	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"
	"studyplan_go/services"
	"studyplan_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AdHocPlanController struct{}

// GetAdHocPlans lists ad-hoc plans filtered by student, date and container
func (ac *AdHocPlanController) GetAdHocPlans(c *fiber.Ctx) error {
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

	var plans []models.AdHocPlan
	if err := query.Order("plan_date ASC, id ASC").Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch ad-hoc plans"})
	}

	return c.JSON(fiber.Map{"adhoc_plans": plans, "total": len(plans)})
}

// CreateAdHocPlanRequest is the creation body
type CreateAdHocPlanRequest struct {
	StudentID        uint   `json:"student_id" validate:"required"`
	Title            string `json:"title" validate:"required"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	PlanDate         string `json:"plan_date" validate:"required"`
	ContainerType    string `json:"container_type"`
}

// CreateAdHocPlan creates a lightweight task without a volume range
func (ac *AdHocPlanController) CreateAdHocPlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreateAdHocPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	if req.EstimatedMinutes < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "estimated_minutes must be >= 0"})
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

	plan := models.AdHocPlan{
		TenantID:         scope.TenantID,
		StudentID:        req.StudentID,
		Title:            req.Title,
		EstimatedMinutes: req.EstimatedMinutes,
		PlanDate:         planDate,
		ContainerType:    container,
		Status:           models.PlanStatusPending,
		IsActive:         true,
	}

	if err := database.DB.Create(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create ad-hoc plan"})
	}

	services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
	services.BroadcastPlanEvent("created", plan.StudentID, plan.PlanDate)
	middleware.LogActivity(c, "CREATE", "adhoc_plans", plan.ID, fiber.Map{"title": plan.Title})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"adhoc_plan": plan})
}

// UpdateAdHocPlan updates status or metadata
func (ac *AdHocPlanController) UpdateAdHocPlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var plan models.AdHocPlan
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ad-hoc plan not found"})
	}

	var req struct {
		Title            *string `json:"title"`
		EstimatedMinutes *int    `json:"estimated_minutes"`
		Status           *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.EstimatedMinutes != nil {
		if *req.EstimatedMinutes < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "estimated_minutes must be >= 0"})
		}
		updates["estimated_minutes"] = *req.EstimatedMinutes
	}
	if req.Status != nil {
		if !utils.IsValidPlanStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&plan).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update ad-hoc plan"})
		}
		services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
		services.BroadcastPlanEvent("updated", plan.StudentID, plan.PlanDate)
		middleware.LogActivity(c, "UPDATE", "adhoc_plans", plan.ID, updates)
	}

	return c.JSON(fiber.Map{"adhoc_plan": plan})
}

// MoveAdHocPlan moves an ad-hoc plan between containers
func (ac *AdHocPlanController) MoveAdHocPlan(c *fiber.Ctx) error {
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

	plan, err := services.NewPlanService().MoveAdHocToContainer(scope, id, req.Container, targetDate)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Ad-hoc plan moved", "adhoc_plan": plan})
}

// DeleteAdHocPlan soft-deletes an ad-hoc plan
func (ac *AdHocPlanController) DeleteAdHocPlan(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var plan models.AdHocPlan
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&plan).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ad-hoc plan not found"})
	}

	if err := database.DB.Delete(&plan).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete ad-hoc plan"})
	}

	services.InvalidateTimeline(plan.StudentID, plan.PlanDate)
	services.BroadcastPlanEvent("deleted", plan.StudentID, plan.PlanDate)
	middleware.LogActivity(c, "DELETE", "adhoc_plans", plan.ID, nil)

	return c.JSON(fiber.Map{"message": "Ad-hoc plan deleted successfully"})
}
