package main

import (
	"log"
	"os"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/database/seeders"
	"studyplan_go/middleware"
	"studyplan_go/routes"
	"studyplan_go/services"
	"studyplan_go/services/notifications"
	"studyplan_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func init() {
	setupLogging()
	config.LoadConfig()
	database.Connect()

	if config.AppConfig.AppEnv == "development" && os.Getenv("SEED_DB") == "true" {
		seeders.SeedAll()
	}
}

func main() {
	// WebSocket hub first; schedulers and notifications broadcast through it
	wsHub := websocket.NewHub()
	go wsHub.Run()
	services.SetPlanEventBroadcaster(wsHub)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(config.AppConfig.MaxBodySize),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.LogActivityMiddleware())

	// Wire notifications to the hub globally so services created later
	// (incl. the batch scheduler) broadcast over the same connection set
	notifications.SetDefaultWSHub(wsHub)
	notifService := notifications.NewService()
	notifService.SetWebSocketHub(wsHub)
	stopNotif := make(chan struct{})
	notifService.StartWorker(stopNotif)

	// Nightly carryover, hourly audit flush, daily archive
	if err := services.GetBatchScheduler().Start(); err != nil {
		log.Fatal("Failed to start batch scheduler:", err)
	}

	routes.SetupRoutes(app, wsHub)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	addr := ":" + config.AppConfig.Port
	logrus.WithFields(logrus.Fields{
		"port":        config.AppConfig.Port,
		"environment": config.AppConfig.AppEnv,
	}).Info("Study Plan API starting")

	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if os.Getenv("APP_ENV") == "development" {
		logrus.SetOutput(os.Stdout)
	} else {
		file, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logrus.SetOutput(file)
		}
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
