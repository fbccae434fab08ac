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

// slotInvalidationWeeks bounds how far ahead template edits flush cached
// timelines. Entries expire on their own TTL well before that.
const slotInvalidationWeeks = 4

// invalidateSlotDays drops cached timelines for the student's upcoming dates
// on a slot's weekday. Template edits change how those days render.
func invalidateSlotDays(studentID uint, weekday int) {
	for _, day := range utils.UpcomingWeekdayDates(time.Now(), weekday, slotInvalidationWeeks) {
		services.InvalidateTimeline(studentID, day)
	}
}

type TimeSlotController struct{}

// validateClockRange checks a "HH:MM" pair and that end is after start.
func validateClockRange(startTime, endTime string) error {
	start, err := utils.MinutesOfDay(startTime)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid start_time, expected HH:MM")
	}
	end, err := utils.MinutesOfDay(endTime)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid end_time, expected HH:MM")
	}
	if end <= start {
		return fiber.NewError(fiber.StatusBadRequest, "end_time must be after start_time")
	}
	return nil
}

// GetTimeSlots lists a student's template slots
func (tc *TimeSlotController) GetTimeSlots(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	query := database.DB.Where("tenant_id = ?", scope.TenantID)
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if weekday := c.Query("weekday"); weekday != "" {
		query = query.Where("weekday = ?", weekday)
	}

	var slots []models.TimeSlot
	if err := query.Order("weekday ASC, start_time ASC").Find(&slots).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch time slots"})
	}

	return c.JSON(fiber.Map{"time_slots": slots, "total": len(slots)})
}

// CreateTimeSlotRequest is the slot creation body
type CreateTimeSlotRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Weekday   int    `json:"weekday"`
	Kind      string `json:"kind" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Label     string `json:"label"`
}

// CreateTimeSlot creates a weekly template slot
func (tc *TimeSlotController) CreateTimeSlot(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreateTimeSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "weekday must be 0-6"})
	}
	if !utils.IsValidSlotKind(req.Kind) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kind"})
	}
	if err := validateClockRange(req.StartTime, req.EndTime); err != nil {
		return err
	}

	slot := models.TimeSlot{
		TenantID:  scope.TenantID,
		StudentID: req.StudentID,
		Weekday:   req.Weekday,
		Kind:      req.Kind,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Label:     req.Label,
		Active:    true,
	}

	if err := database.DB.Create(&slot).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create time slot"})
	}

	invalidateSlotDays(slot.StudentID, slot.Weekday)
	middleware.LogActivity(c, "CREATE", "time_slots", slot.ID, fiber.Map{"kind": slot.Kind})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"time_slot": slot})
}

// UpdateTimeSlot updates a template slot
func (tc *TimeSlotController) UpdateTimeSlot(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var slot models.TimeSlot
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&slot).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Time slot not found"})
	}

	var req struct {
		Kind      *string `json:"kind"`
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
		Label     *string `json:"label"`
		Active    *bool   `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Kind != nil {
		if !utils.IsValidSlotKind(*req.Kind) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid kind"})
		}
		updates["kind"] = *req.Kind
	}
	startTime := slot.StartTime
	endTime := slot.EndTime
	if req.StartTime != nil {
		startTime = *req.StartTime
		updates["start_time"] = startTime
	}
	if req.EndTime != nil {
		endTime = *req.EndTime
		updates["end_time"] = endTime
	}
	if req.StartTime != nil || req.EndTime != nil {
		if err := validateClockRange(startTime, endTime); err != nil {
			return err
		}
	}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&slot).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update time slot"})
		}
		invalidateSlotDays(slot.StudentID, slot.Weekday)
		middleware.LogActivity(c, "UPDATE", "time_slots", slot.ID, updates)
	}

	return c.JSON(fiber.Map{"time_slot": slot})
}

// DeleteTimeSlot soft-deletes a template slot
func (tc *TimeSlotController) DeleteTimeSlot(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var slot models.TimeSlot
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&slot).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Time slot not found"})
	}

	if err := database.DB.Delete(&slot).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete time slot"})
	}

	invalidateSlotDays(slot.StudentID, slot.Weekday)
	middleware.LogActivity(c, "DELETE", "time_slots", slot.ID, nil)

	return c.JSON(fiber.Map{"message": "Time slot deleted successfully"})
}

type NonStudyBlockController struct{}

// GetBlocks lists a student's per-day fixed blocks
func (bc *NonStudyBlockController) GetBlocks(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	query := database.DB.Where("tenant_id = ?", scope.TenantID)
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := utils.ParseDate(dateStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		query = query.Where("block_date = ?", date)
	}

	var blocks []models.NonStudyBlock
	if err := query.Order("block_date ASC, start_time ASC").Find(&blocks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch blocks"})
	}

	return c.JSON(fiber.Map{"blocks": blocks, "total": len(blocks)})
}

// CreateBlockRequest is the block creation body. TimeSlotID marks the block
// as a one-day override of a template slot.
type CreateBlockRequest struct {
	StudentID  uint   `json:"student_id" validate:"required"`
	BlockDate  string `json:"block_date" validate:"required"`
	Type       string `json:"type" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Label      string `json:"label"`
	TimeSlotID *uint  `json:"time_slot_id"`
}

// CreateBlock creates a fixed interval on a student's day
func (bc *NonStudyBlockController) CreateBlock(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req CreateBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !utils.IsValidBlockType(req.Type) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid type"})
	}
	if err := validateClockRange(req.StartTime, req.EndTime); err != nil {
		return err
	}

	blockDate, err := utils.ParseDate(req.BlockDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid block_date, expected YYYY-MM-DD"})
	}

	block := models.NonStudyBlock{
		TenantID:   scope.TenantID,
		StudentID:  req.StudentID,
		BlockDate:  blockDate,
		Type:       req.Type,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Label:      req.Label,
		TimeSlotID: req.TimeSlotID,
	}

	if err := database.DB.Create(&block).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create block"})
	}

	services.InvalidateTimeline(block.StudentID, block.BlockDate)
	middleware.LogActivity(c, "CREATE", "blocks", block.ID, fiber.Map{"type": block.Type})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"block": block})
}

// DeleteBlock removes a fixed block
func (bc *NonStudyBlockController) DeleteBlock(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var block models.NonStudyBlock
	if err := database.DB.Where("id = ? AND tenant_id = ?", id, scope.TenantID).First(&block).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Block not found"})
	}

	if err := database.DB.Delete(&block).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete block"})
	}

	services.InvalidateTimeline(block.StudentID, block.BlockDate)
	middleware.LogActivity(c, "DELETE", "blocks", block.ID, nil)

	return c.JSON(fiber.Map{"message": "Block deleted successfully"})
}
