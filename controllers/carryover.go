package controllers

import (
	"strconv"
	"time"

	"studyplan_go/middleware"
	"studyplan_go/services"
	"studyplan_go/utils"

	"github.com/gofiber/fiber/v2"
)

type CarryoverController struct{}

func carryoverOptions(c *fiber.Ctx, scope services.Scope, dryRun bool) (services.CarryoverOptions, error) {
	opts := services.CarryoverOptions{DryRun: dryRun}

	// Runs are always confined to the caller's tenant over HTTP; the CLI is
	// the cross-tenant surface.
	tenantID := scope.TenantID
	opts.TenantID = &tenantID

	if studentStr := c.Query("student_id"); studentStr != "" {
		studentID, err := strconv.ParseUint(studentStr, 10, 32)
		if err != nil {
			return opts, fiber.NewError(fiber.StatusBadRequest, "Invalid student_id")
		}
		sid := uint(studentID)
		opts.StudentID = &sid
	}

	if cutoffStr := c.Query("cutoff"); cutoffStr != "" {
		cutoff, err := utils.ParseDate(cutoffStr)
		if err != nil {
			return opts, fiber.NewError(fiber.StatusBadRequest, "Invalid cutoff, expected YYYY-MM-DD")
		}
		opts.Cutoff = cutoff
	} else {
		opts.Cutoff = time.Now()
	}

	return opts, nil
}

// PreviewCarryover reports what a carryover run would migrate, without
// mutating anything
func (cc *CarryoverController) PreviewCarryover(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	opts, err := carryoverOptions(c, scope, true)
	if err != nil {
		return err
	}

	report, err := services.NewCarryoverService().Run(scope, opts)
	if err != nil {
		return planError(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

// RunCarryover executes a carryover batch for the caller's tenant
func (cc *CarryoverController) RunCarryover(c *fiber.Ctx) error {
	scope, err := middleware.CurrentScope(c)
	if err != nil {
		return err
	}

	var req struct {
		DryRun bool `json:"dry_run"`
	}
	// Body is optional; an empty body means a real run.
	_ = c.BodyParser(&req)

	opts, err := carryoverOptions(c, scope, req.DryRun)
	if err != nil {
		return err
	}

	report, err := services.NewCarryoverService().Run(scope, opts)
	if err != nil {
		return planError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "carryover_runs", 0, fiber.Map{
		"dry_run":   report.DryRun,
		"processed": report.ProcessedCount,
		"failed":    report.FailedCount,
	})

	return c.JSON(fiber.Map{"report": report})
}
