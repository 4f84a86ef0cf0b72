package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"taskboard/config"
	controller "taskboard/controllers"
	"taskboard/ingest"
	"taskboard/middleware"
	"taskboard/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, router *ingest.Router, notifier *utils.Notifier) {
	inboundController := controller.NewInboundController(router, notifier, log.New(os.Stdout, "INBOUND: ", log.Ldate|log.Ltime|log.Lshortfile))
	emailController := controller.NewEmailController(db, router, log.New(os.Stdout, "EMAIL: ", log.LstdFlags))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Attachment files saved by the IMAP worker
	app.Static("/uploads", config.AppConfig.AttachmentDir)

	// Inbound routes: the gateway-facing surface
	inbound := app.Group("/inbound", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	inbound.Post("/email", middleware.InboundRateLimiter(), inboundController.HandleInboundEmail)
	inbound.Post("/parse", inboundController.HandleParsePreview)

	// Admin API over inbound email records
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	emails := api.Group("/emails")
	emails.Get("/", emailController.GetEmails)
	emails.Get("/:id", emailController.GetEmail)
	emails.Post("/:id/reclassify", emailController.ReclassifyEmail)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Println("Routes initialized successfully")
}
