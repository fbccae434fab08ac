package controllers

import (
	"strconv"

	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// GetStudents returns the tenant's students with pagination
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := database.DB.Model(&models.Student{}).Where("tenant_id = ?", scope.TenantID)

	if gradeLevel := c.Query("grade_level"); gradeLevel != "" {
		query = query.Where("grade_level = ?", gradeLevel)
	}
	if school := c.Query("school"); school != "" {
		query = query.Where("school = ?", school)
	}

	query.Count(&total)

	if err := query.Preload("User").Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a single student
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	if err := database.DB.Preload("User").Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	return c.JSON(fiber.Map{"student": student})
}

// CreateStudentRequest is the student creation body
type CreateStudentRequest struct {
	UserID       uint   `json:"user_id" validate:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Nickname     string `json:"nickname"`
	GradeLevel   string `json:"grade_level"`
	School       string `json:"school"`
	ParentName   string `json:"parent_name"`
	ParentPhone  string `json:"parent_phone"`
	ParentLineID string `json:"parent_line_id"`
}

// CreateStudent creates a student profile linked to a user account
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var user models.User
	if err := database.DB.Where("id = ? AND tenant_id = ?", req.UserID, scope.TenantID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	student := models.Student{
		UserID:       req.UserID,
		TenantID:     scope.TenantID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Nickname:     req.Nickname,
		GradeLevel:   req.GradeLevel,
		School:       req.School,
		ParentName:   req.ParentName,
		ParentPhone:  req.ParentPhone,
		ParentLineID: req.ParentLineID,
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create student"})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{"nickname": student.Nickname})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"student": student})
}

// UpdateStudent updates profile fields
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	allowed := map[string]bool{
		"first_name": true, "last_name": true, "nickname": true,
		"grade_level": true, "school": true, "parent_name": true,
		"parent_phone": true, "parent_line_id": true,
		"learning_goals": true, "manager_comment": true,
	}
	updates := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			updates[k] = v
		}
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update student"})
		}
		middleware.LogActivity(c, "UPDATE", "students", student.ID, updates)
	}

	return c.JSON(fiber.Map{"student": student})
}
