package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskboard/ingest"
	"taskboard/models"
	"taskboard/utils"
)

// EmailController is the small admin surface over inbound email records:
// inspection plus the human reclassification override.
type EmailController struct {
	db     *gorm.DB
	router *ingest.Router
	logger *log.Logger
}

func NewEmailController(db *gorm.DB, router *ingest.Router, logger *log.Logger) *EmailController {
	return &EmailController{
		db:     db,
		router: router,
		logger: logger,
	}
}

// GetEmails lists inbound emails, newest first, optionally filtered by status
// GET /api/v1/emails?status=failed&page=1&limit=20
func (ec *EmailController) GetEmails(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := ec.db.Model(&models.InboundEmail{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count emails", err)
	}

	var emails []models.InboundEmail
	err := query.Preload("Attachments").
		Order("received_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch emails", err)
	}

	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  emails,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// GetEmail returns one inbound email with its attachments
// GET /api/v1/emails/:id
func (ec *EmailController) GetEmail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email id", nil)
	}

	var email models.InboundEmail
	if err := ec.db.Preload("Attachments").First(&email, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Email not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch email", err)
	}

	return c.JSON(utils.SuccessResponse(email))
}

// ReclassifyEmail lets a human materialize a task or idea for an email the
// automatic run never classified, marking the email manual.
// POST /api/v1/emails/:id/reclassify  body: {"create": "task"|"idea"}
func (ec *EmailController) ReclassifyEmail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email id", nil)
	}

	var req struct {
		Create string `json:"create" validate:"required,oneof=task idea"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	result, err := ec.router.Reclassify(uint(id), req.Create)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Email not found", nil)
		case errors.Is(err, ingest.ErrValidation):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		default:
			ec.logger.Printf("Reclassify failed for email %d: %v", id, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reclassify email", err)
		}
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"email_id":        result.EmailID,
		"created_task_id": result.TaskID,
		"created_idea_id": result.IdeaID,
		"parsed_metadata": result.Metadata,
	})
}
