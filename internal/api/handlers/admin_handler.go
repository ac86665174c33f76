package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/assist"
	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/metrics"
	"github.com/artwin/feedback-hub/internal/sync"
	"github.com/artwin/feedback-hub/pkg/logger"
)

type AdminHandler struct {
	orchestrator *sync.Orchestrator
	assistant    assist.Assistant
}

func NewAdminHandler(orchestrator *sync.Orchestrator, assistant assist.Assistant) *AdminHandler {
	return &AdminHandler{
		orchestrator: orchestrator,
		assistant:    assistant,
	}
}

func parseDept(c *fiber.Ctx) (feedback.Department, bool) {
	return feedback.ParseDepartment(c.Params("dept"))
}

func unknownDepartment(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Unknown department",
	})
}

// ListFeedback runs a load cycle for the department: remote refresh in
// dual-backend mode, local collection otherwise.
func (h *AdminHandler) ListFeedback(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	items, err := h.orchestrator.Load(c.Context(), dept)
	if err != nil {
		logger.Error("Failed to load feedback", zap.String("department", string(dept)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load feedback",
		})
	}

	return c.JSON(fiber.Map{
		"department": dept,
		"table":      feedback.DepartmentTables[dept],
		"items":      items,
	})
}

func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	status, ok := feedback.ParseStatus(req.Status)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown status",
		})
	}

	if err := h.orchestrator.SetStatus(c.Context(), dept, c.Params("id"), status); err != nil {
		logger.Error("Failed to update status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update status",
		})
	}

	return c.JSON(fiber.Map{
		"id":     c.Params("id"),
		"status": status,
	})
}

func (h *AdminHandler) AddComment(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	var req struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment text is required",
		})
	}
	if req.Author == "" {
		req.Author = fmt.Sprintf("%s Admin", dept)
	}

	comment := feedback.NewComment(req.Author, req.Text)
	if err := h.orchestrator.AddComment(c.Context(), dept, c.Params("id"), comment); err != nil {
		logger.Error("Failed to add comment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add comment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// AnalyzeFeedback runs the AI enrichment for one item, persists it and
// appends the system comment. Re-running overwrites the previous
// analysis.
func (h *AdminHandler) AnalyzeFeedback(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	item, found, err := h.findItem(c, dept)
	if err != nil {
		logger.Error("Failed to load feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load feedback",
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Feedback not found",
		})
	}

	metrics.AIRequestsTotal.WithLabelValues("analyze").Inc()
	analysis := h.assistant.Analyze(c.Context(), item.Message, item.Urgency)

	if err := h.orchestrator.RecordAnalysis(c.Context(), dept, item.ID, analysis); err != nil {
		logger.Error("Failed to record analysis", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record analysis",
		})
	}

	return c.JSON(analysis)
}

func (h *AdminHandler) DraftReply(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	item, found, err := h.findItem(c, dept)
	if err != nil {
		logger.Error("Failed to load feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load feedback",
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Feedback not found",
		})
	}

	metrics.AIRequestsTotal.WithLabelValues("draft").Inc()
	draft := h.assistant.DraftReply(c.Context(), item)

	return c.JSON(fiber.Map{
		"id":    item.ID,
		"draft": draft,
	})
}

// GenerateReport summarizes the department's current items. With
// send=true the report also goes out through the Telegram dispatcher,
// which requires a configured bot.
func (h *AdminHandler) GenerateReport(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	var req struct {
		Send bool `json:"send"`
	}
	// empty body means generate without sending
	_ = c.BodyParser(&req)

	items, err := h.orchestrator.Load(c.Context(), dept)
	if err != nil {
		logger.Error("Failed to load feedback for report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load feedback",
		})
	}

	metrics.AIRequestsTotal.WithLabelValues("report").Inc()
	report := h.assistant.SummarizeReport(c.Context(), items, dept)

	sent := false
	if req.Send {
		if err := h.orchestrator.SendReport(c.Context(), dept, report); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  err.Error(),
				"report": report,
			})
		}
		sent = true
	}

	return c.JSON(fiber.Map{
		"department": dept,
		"report":     report,
		"sent":       sent,
	})
}

func (h *AdminHandler) findItem(c *fiber.Ctx, dept feedback.Department) (feedback.Item, bool, error) {
	items, err := h.orchestrator.Load(c.Context(), dept)
	if err != nil {
		return feedback.Item{}, false, err
	}

	id := c.Params("id")
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return feedback.Item{}, false, nil
}
