package controllers

import (
	"fmt"
	"time"

	"studyplan_go/database"
	"studyplan_go/middleware"
	"studyplan_go/models"
	"studyplan_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ReportController struct{}

// weekBounds returns the Monday and following Monday of the week containing d.
func weekBounds(d time.Time) (time.Time, time.Time) {
	day := utils.DateOnly(d)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 7)
}

// WeeklyReport exports the week's plans for a student as an xlsx workbook
func (rc *ReportController) WeeklyReport(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	studentIDStr := c.Query("student_id")
	if studentIDStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id is required"})
	}

	var student models.Student
	if err := database.DB.Where("id = ? AND tenant_id = ?", studentIDStr, scope.TenantID).First(&student).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	date, err := parseDateQuery(c, "date")
	if err != nil {
		return err
	}
	weekStart, weekEnd := weekBounds(date)

	var plans []models.Plan
	err = database.DB.Preload("PlanGroup").Where(
		"tenant_id = ? AND student_id = ? AND plan_date >= ? AND plan_date < ?",
		scope.TenantID, student.ID, weekStart, weekEnd,
	).Order("plan_date ASC, sequence ASC").Find(&plans).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plans"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Weekly Report"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Container", "Subject", "Title", "Range", "Volume", "Completed", "Status", "Carryovers"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	totalVolume := 0
	totalCompleted := 0
	for row, plan := range plans {
		subject := ""
		if plan.PlanGroup != nil {
			subject = plan.PlanGroup.Subject
		}
		values := []interface{}{
			plan.PlanDate.Format("2006-01-02"),
			plan.ContainerType,
			subject,
			plan.Title,
			fmt.Sprintf("%d-%d", plan.PlannedStart, plan.PlannedEnd),
			plan.Volume(),
			plan.CompletedAmount,
			plan.Status,
			plan.CarryoverCount,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
		totalVolume += plan.Volume()
		totalCompleted += plan.CompletedAmount
	}

	summaryRow := len(plans) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), totalVolume)
	f.SetCellValue(sheet, fmt.Sprintf("G%d", summaryRow), totalCompleted)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate report"})
	}

	fileName := fmt.Sprintf("weekly_report_%d_%s.xlsx", student.ID, weekStart.Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))

	middleware.LogActivity(c, "CREATE", "reports", student.ID, fiber.Map{
		"week_start": weekStart.Format("2006-01-02"),
		"plan_count": len(plans),
	})

	return c.Send(buf.Bytes())
}
