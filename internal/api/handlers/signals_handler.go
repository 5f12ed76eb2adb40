package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/feed"
	"github.com/signal-desk/backend/internal/metrics"
	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/internal/storage/sqlite"
	"github.com/signal-desk/backend/pkg/logger"
)

type SignalUpdater interface {
	UpdateSignal(id string, update models.SignalUpdate) (*models.Signal, error)
}

type SignalsHandler struct {
	assembler *feed.Assembler
	store     SignalUpdater
}

func NewSignalsHandler(assembler *feed.Assembler, store SignalUpdater) *SignalsHandler {
	return &SignalsHandler{assembler: assembler, store: store}
}

func (h *SignalsHandler) GetSignals(c *fiber.Ctx) error {
	start := time.Now()

	result, err := h.assembler.Assemble(c.Context())
	if err != nil {
		logger.Error("Failed to assemble signal feed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())
	metrics.FeedSignalsReturned.Observe(float64(len(result.Signals)))

	return c.JSON(fiber.Map{
		"signals":     result.Signals,
		"stats":       result.Stats,
		"lastUpdated": result.LastUpdated,
	})
}

func (h *SignalsHandler) PatchSignal(c *fiber.Ctx) error {
	var req struct {
		ID        string  `json:"id"`
		Status    *string `json:"status"`
		ClaimedBy *string `json:"claimed_by"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}
	if req.Status == nil && req.ClaimedBy == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one of status or claimed_by is required",
		})
	}

	update := models.SignalUpdate{ClaimedBy: req.ClaimedBy}
	if req.Status != nil {
		status := models.SignalStatus(*req.Status)
		update.Status = &status
	}

	signal, err := h.store.UpdateSignal(req.ID, update)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "signal not found",
		})
	}
	if err != nil {
		logger.Error("Failed to update signal", zap.String("signal_id", req.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"signal": signal,
	})
}
