package controller

import (
	"errors"
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"taskboard/ingest"
	"taskboard/parser"
	"taskboard/utils"
)

// InboundController is the HTTP face of the email router. The router itself
// never sees fiber; this layer only maps payloads and errors.
type InboundController struct {
	router   *ingest.Router
	notifier *utils.Notifier
	logger   *log.Logger
}

func NewInboundController(router *ingest.Router, notifier *utils.Notifier, logger *log.Logger) *InboundController {
	return &InboundController{
		router:   router,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleInboundEmail processes one delivered email end to end.
// POST /inbound/email
func (ic *InboundController) HandleInboundEmail(c *fiber.Ctx) error {
	var payload ingest.InboundPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(&payload); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if err := checkmail.ValidateFormat(payload.SenderEmail); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "sender_email must be a valid email", err)
	}

	result, err := ic.router.Route(&payload)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		}
		ic.logger.Printf("Routing failed for sender %s: %v", payload.SenderEmail, err)
		sentry.CaptureException(err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process email", err)
	}

	ic.notifySender(&payload, result)

	return c.JSON(fiber.Map{
		"success":         true,
		"email_id":        result.EmailID,
		"created_task_id": result.TaskID,
		"created_idea_id": result.IdeaID,
		"parsed_metadata": result.Metadata,
	})
}

// HandleParsePreview runs the extractors without touching storage, so
// clients can show what routing would derive before anything is sent.
// POST /inbound/parse
func (ic *InboundController) HandleParsePreview(c *fiber.Ctx) error {
	var req struct {
		Subject  string `json:"subject"`
		BodyText string `json:"body_text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	meta := parser.Parse(req.Subject, req.BodyText, time.Now())
	return c.JSON(utils.SuccessResponse(meta))
}

func (ic *InboundController) notifySender(payload *ingest.InboundPayload, result *ingest.Result) {
	if ic.notifier == nil {
		return
	}

	kind := "task"
	if result.IdeaID != nil {
		kind = "idea"
	}
	name := payload.SenderName
	if name == "" {
		name = utils.DisplayNameFromEmail(payload.SenderEmail)
	}
	dueDate := ""
	if result.Metadata.DueDate != nil {
		dueDate = result.Metadata.DueDate.Format("2006-01-02")
	}

	if err := ic.notifier.NotifyCreated(payload.SenderEmail, name, payload.Subject, kind, dueDate); err != nil {
		ic.logger.Printf("Failed to notify %s: %v", payload.SenderEmail, err)
	}
}
