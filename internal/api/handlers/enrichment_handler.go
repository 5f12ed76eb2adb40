package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/enrichment"
	"github.com/signal-desk/backend/internal/metrics"
	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

type SignalLister interface {
	SignalsByTypes(types []models.SignalType) ([]models.Signal, error)
}

type EnrichmentHandler struct {
	engine *enrichment.Engine
	store  SignalLister
}

func NewEnrichmentHandler(engine *enrichment.Engine, store SignalLister) *EnrichmentHandler {
	return &EnrichmentHandler{engine: engine, store: store}
}

// EnrichSignals runs best-effort end-client inference over the current job
// signals. Partial failures only reduce coverage, never the response status.
func (h *EnrichmentHandler) EnrichSignals(c *fiber.Ctx) error {
	signals, err := h.store.SignalsByTypes(models.JobTypes())
	if err != nil {
		metrics.EnrichmentRequests.WithLabelValues("error").Inc()
		logger.Error("Failed to fetch signals for enrichment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	predictions := h.engine.Infer(c.Context(), signals)

	metrics.EnrichmentRequests.WithLabelValues("ok").Inc()
	metrics.SignalsEnriched.Add(float64(len(predictions)))

	return c.JSON(fiber.Map{
		"enriched":    len(predictions),
		"predictions": predictions,
	})
}
