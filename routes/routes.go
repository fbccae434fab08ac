package routes

import (
	"studyplan_go/controllers"
	"studyplan_go/database"
	"studyplan_go/handlers"
	"studyplan_go/middleware"
	"studyplan_go/services"
	"studyplan_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	authController := &controllers.AuthController{}
	studentController := &controllers.StudentController{}
	planGroupController := &controllers.PlanGroupController{}
	planController := &controllers.PlanController{}
	adHocController := &controllers.AdHocPlanController{}
	timeSlotController := &controllers.TimeSlotController{}
	blockController := &controllers.NonStudyBlockController{}
	carryoverController := &controllers.CarryoverController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	reportController := &controllers.ReportController{}
	healthController := controllers.NewHealthController(services.NewHealthService("", ""))
	wsController := controllers.NewWebSocketController(wsHub)

	app.Get("/health", healthController.GetHealthStatus)

	// LINE webhook (signature-validated, no JWT)
	lineWebhook := handlers.NewLineWebhookHandler(database.DB)
	app.Post("/webhooks/line", lineWebhook.Handle)

	// API group
	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Post("/auth/register", middleware.RequireOwnerOrAdmin(), authController.Register)
	protected.Put("/profile/password", authController.ChangePassword)

	// Plans: CRUD + engines
	plans := protected.Group("/plans", middleware.RequireStaff())
	plans.Get("/", planController.GetPlans)
	plans.Post("/", planController.CreatePlan)
	plans.Post("/reorder", planController.ReorderPlans)
	plans.Get("/:id", planController.GetPlan)
	plans.Put("/:id", planController.UpdatePlan)
	plans.Delete("/:id", planController.DeletePlan)
	plans.Post("/:id/redistribution/preview", planController.PreviewRedistribution)
	plans.Post("/:id/redistribution", planController.ApplyRedistribution)
	plans.Post("/:id/move", planController.MovePlan)

	// Ad-hoc plans
	adhoc := protected.Group("/adhoc-plans", middleware.RequireStaff())
	adhoc.Get("/", adHocController.GetAdHocPlans)
	adhoc.Post("/", adHocController.CreateAdHocPlan)
	adhoc.Put("/:id", adHocController.UpdateAdHocPlan)
	adhoc.Delete("/:id", adHocController.DeleteAdHocPlan)
	adhoc.Post("/:id/move", adHocController.MoveAdHocPlan)

	// Planner templates and per-day fixed blocks
	slots := protected.Group("/time-slots", middleware.RequireStaff())
	slots.Get("/", timeSlotController.GetTimeSlots)
	slots.Post("/", timeSlotController.CreateTimeSlot)
	slots.Put("/:id", timeSlotController.UpdateTimeSlot)
	slots.Delete("/:id", timeSlotController.DeleteTimeSlot)

	blocks := protected.Group("/blocks", middleware.RequireStaff())
	blocks.Get("/", blockController.GetBlocks)
	blocks.Post("/", blockController.CreateBlock)
	blocks.Delete("/:id", blockController.DeleteBlock)

	// Students + merged day view
	students := protected.Group("/students", middleware.RequireStaff())
	students.Get("/", studentController.GetStudents)
	students.Post("/", middleware.RequireOwnerOrAdmin(), studentController.CreateStudent)
	students.Get("/:id", studentController.GetStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Get("/:id/timeline", planController.GetTimeline)
	students.Get("/:id/conflicts", planController.GetConflicts)

	// Content assignments
	planGroups := protected.Group("/plan-groups", middleware.RequireStaff())
	planGroups.Get("/", planGroupController.GetPlanGroups)
	planGroups.Post("/", planGroupController.CreatePlanGroup)
	planGroups.Get("/:id", planGroupController.GetPlanGroup)
	planGroups.Delete("/:id", planGroupController.DeletePlanGroup)

	// Carryover batch
	carryover := protected.Group("/carryover", middleware.RequireOwnerOrAdmin())
	carryover.Get("/preview", carryoverController.PreviewCarryover)
	carryover.Post("/run", carryoverController.RunCarryover)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/read-all", notificationController.MarkAllAsRead)

	// Reports
	reports := protected.Group("/reports", middleware.RequireStaff())
	reports.Get("/weekly.xlsx", reportController.WeeklyReport)

	// Audit logs (admin/owner)
	logs := protected.Group("/logs", middleware.RequireOwnerOrAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)

	// WebSocket stats (admin/owner)
	protected.Get("/ws/stats", middleware.RequireOwnerOrAdmin(), wsController.GetWebSocketStats)

	// WebSocket endpoint; token auth happens inside the handler
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
