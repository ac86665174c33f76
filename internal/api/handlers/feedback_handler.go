package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/assist"
	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/metrics"
	"github.com/artwin/feedback-hub/internal/sync"
	"github.com/artwin/feedback-hub/pkg/logger"
)

type FeedbackHandler struct {
	orchestrator *sync.Orchestrator
	assistant    assist.Assistant
}

func NewFeedbackHandler(orchestrator *sync.Orchestrator, assistant assist.Assistant) *FeedbackHandler {
	return &FeedbackHandler{
		orchestrator: orchestrator,
		assistant:    assistant,
	}
}

// SubmitFeedback accepts one intake form submission. Validation failures
// are the only user-visible errors on this path; sheet and Telegram
// side effects never surface.
func (h *FeedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req feedback.Submission
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, err := feedback.New(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.orchestrator.Create(c.Context(), item); err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

// ClassifyMessage suggests an owning department for the form's
// auto-categorization. Always answers; the fallback is Other.
func (h *FeedbackHandler) ClassifyMessage(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	metrics.AIRequestsTotal.WithLabelValues("classify").Inc()
	dept := h.assistant.ClassifyDepartment(c.Context(), req.Message)

	return c.JSON(fiber.Map{
		"department": dept,
		"table":      feedback.DepartmentTables[dept],
	})
}
