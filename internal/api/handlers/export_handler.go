package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/sync"
	"github.com/artwin/feedback-hub/pkg/logger"
)

type ExportHandler struct {
	orchestrator *sync.Orchestrator
}

func NewExportHandler(orchestrator *sync.Orchestrator) *ExportHandler {
	return &ExportHandler{orchestrator: orchestrator}
}

// ExportCSV streams every stored item across all departments as a
// spreadsheet-compatible CSV download, newest first.
func (h *ExportHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.orchestrator.ExportCSV(&buf); err != nil {
		logger.Error("Failed to export CSV", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export CSV",
		})
	}

	filename := fmt.Sprintf("artwin_backup_%s.csv", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
