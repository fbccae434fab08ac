package controllers

import (
	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"
	"studyplan_go/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PlanGroupController struct{}

// GetPlanGroups lists content assignments for a student
func (pgc *PlanGroupController) GetPlanGroups(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	query := database.DB.Where("tenant_id = ?", scope.TenantID)
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var groups []models.PlanGroup
	if err := query.Order("id ASC").Find(&groups).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plan groups"})
	}

	return c.JSON(fiber.Map{"plan_groups": groups, "total": len(groups)})
}

// GetPlanGroup returns one assignment with its plans
func (pgc *PlanGroupController) GetPlanGroup(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var group models.PlanGroup
	if err := database.DB.Preload("Plans", func(db *gorm.DB) *gorm.DB {
		return db.Order("plan_date ASC, sequence ASC")
	}).Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&group).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan group not found"})
	}

	return c.JSON(fiber.Map{"plan_group": group})
}

// CreatePlanGroupRequest is the assignment creation body
type CreatePlanGroupRequest struct {
	StudentID   uint   `json:"student_id" validate:"required"`
	ContentType string `json:"content_type"`
	Title       string `json:"title" validate:"required"`
	Subject     string `json:"subject"`
	UnitKind    string `json:"unit_kind"`
	TotalStart  int    `json:"total_start"`
	TotalEnd    int    `json:"total_end"`
}

// CreatePlanGroup creates a content assignment
func (pgc *PlanGroupController) CreatePlanGroup(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreatePlanGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	if req.TotalStart < 0 || req.TotalEnd < req.TotalStart {
		return planError(c, &services.InvalidRangeError{Start: req.TotalStart, End: req.TotalEnd})
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "book"
	}
	unitKind := req.UnitKind
	if unitKind == "" {
		unitKind = "pages"
	}

	group := models.PlanGroup{
		TenantID:    scope.TenantID,
		StudentID:   req.StudentID,
		ContentType: contentType,
		Title:       req.Title,
		Subject:     req.Subject,
		UnitKind:    unitKind,
		TotalStart:  req.TotalStart,
		TotalEnd:    req.TotalEnd,
	}

	if err := database.DB.Create(&group).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create plan group"})
	}

	middleware.LogActivity(c, "CREATE", "plan_groups", group.ID, fiber.Map{"title": group.Title})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan_group": group})
}

// DeletePlanGroup soft-deletes an assignment; its plans keep their group id
// but redistribution treats them as ungrouped once the group is gone
func (pgc *PlanGroupController) DeletePlanGroup(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var group models.PlanGroup
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&group).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan group not found"})
	}

	if err := database.DB.Delete(&group).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete plan group"})
	}

	middleware.LogActivity(c, "DELETE", "plan_groups", group.ID, nil)

	return c.JSON(fiber.Map{"message": "Plan group deleted successfully"})
}
