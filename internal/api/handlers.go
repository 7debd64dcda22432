package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/papersnap/ocr-worker/internal/errors"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	descriptors := s.service.Engines(c.Context(), true)
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engines": toEngineViews(descriptors),
	})
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(s.metrics.GetSnapshot())
}

func (s *Server) handleListEngines(c *fiber.Ctx) error {
	descriptors := s.service.Engines(c.Context(), true)
	return c.JSON(fiber.Map{"engines": toEngineViews(descriptors)})
}

func (s *Server) handleToggleEngine(c *fiber.Ctx) error {
	id := c.Params("id")

	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	descriptors, err := s.service.SetEngineEnabled(c.Context(), id, req.Enabled)
	if err != nil {
		if errors.Is(err, apperrors.ErrEngineNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Engine not found"})
		}
		s.logger.Error("engine toggle failed", zap.String("engine", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to toggle engine"})
	}

	return c.JSON(fiber.Map{"engines": toEngineViews(descriptors)})
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.FilePath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file_path is required"})
	}

	doc, err := s.service.Analyze(c.Context(), req.FilePath, req.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrBadInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "file_path does not exist or is not a file",
			})
		case errors.Is(err, apperrors.ErrNoEngines):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "No OCR engines available",
			})
		default:
			s.logger.Error("analyze failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "analysis failed"})
		}
	}

	return c.JSON(doc)
}
