package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"taskboard/config"
	"taskboard/ingest"
	"taskboard/middleware"
	"taskboard/routes"
	"taskboard/utils"
	"taskboard/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "TASKBOARD: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting is optional; an empty DSN disables it
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// The email router and its persistence collaborator
	store := ingest.NewGormStore(config.DB)
	router := ingest.NewRouter(store, log.New(os.Stdout, "ROUTER: ", log.LstdFlags))

	notifier := utils.NewNotifier(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.FromEmail,
	)
	if !config.AppConfig.NotifySenders {
		notifier = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the mailbox poller when a mailbox is configured
	if config.AppConfig.IMAP.Host != "" {
		files, err := ingest.NewLocalFileStore(config.AppConfig.AttachmentDir, config.AppConfig.AttachmentBaseURL)
		if err != nil {
			logger.Fatalf("Failed to initialize attachment storage: %v", err)
		}
		imapWorker := worker.NewIMAPWorker(config.AppConfig.IMAP, router, files, log.New(os.Stdout, "IMAP: ", log.LstdFlags))
		go imapWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB, router, notifier)

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
