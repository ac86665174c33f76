package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
	"github.com/artwin/feedback-hub/internal/storage/sqlite"
	"github.com/artwin/feedback-hub/pkg/logger"
)

type ConfigHandler struct {
	store *sqlite.Client
}

func NewConfigHandler(store *sqlite.Client) *ConfigHandler {
	return &ConfigHandler{store: store}
}

func (h *ConfigHandler) GetSheetConfig(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	cfg, ok, err := h.store.GetSheetConfig(dept)
	if err != nil {
		logger.Error("Failed to read sheet config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read sheet config",
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No sheet configured for this department",
		})
	}

	// the token is write-only
	return c.JSON(fiber.Map{
		"sheetId":   cfg.SheetID,
		"tabName":   cfg.TabName,
		"connected": cfg.Enabled(),
	})
}

// SaveSheetConfig validates and stores a department's sheet binding.
// A missing access token is allowed: the department simply stays in
// local-only mode.
func (h *ConfigHandler) SaveSheetConfig(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	var cfg sheets.Config
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if cfg.SheetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Sheet ID is required",
		})
	}
	if cfg.TabName == "" {
		cfg.TabName = feedback.DepartmentTables[dept]
	}

	if err := h.store.SaveSheetConfig(dept, cfg); err != nil {
		logger.Error("Failed to save sheet config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save sheet config",
		})
	}

	return c.JSON(fiber.Map{
		"department": dept,
		"connected":  cfg.Enabled(),
	})
}

func (h *ConfigHandler) DeleteSheetConfig(c *fiber.Ctx) error {
	dept, ok := parseDept(c)
	if !ok {
		return unknownDepartment(c)
	}

	if err := h.store.DeleteSheetConfig(dept); err != nil {
		logger.Error("Failed to delete sheet config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete sheet config",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ConfigHandler) GetTelegramConfig(c *fiber.Ctx) error {
	cfg, ok, err := h.store.GetTelegramConfig()
	if err != nil {
		logger.Error("Failed to read telegram config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read telegram config",
		})
	}

	return c.JSON(fiber.Map{
		"configured": ok && cfg.Valid(),
	})
}

func (h *ConfigHandler) SaveTelegramConfig(c *fiber.Ctx) error {
	var cfg notify.Config
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if cfg.BotToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Bot token is required",
		})
	}
	if cfg.ChatID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Chat ID is required",
		})
	}

	if err := h.store.SaveTelegramConfig(cfg); err != nil {
		logger.Error("Failed to save telegram config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save telegram config",
		})
	}

	return c.JSON(fiber.Map{
		"configured": true,
	})
}
