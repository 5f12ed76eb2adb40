package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/cleanup"
	"github.com/signal-desk/backend/internal/metrics"
	"github.com/signal-desk/backend/internal/registry"
	"github.com/signal-desk/backend/pkg/logger"
)

type CleanupHandler struct {
	pipeline   *cleanup.Pipeline
	reconciler *registry.Reconciler
}

func NewCleanupHandler(pipeline *cleanup.Pipeline, reconciler *registry.Reconciler) *CleanupHandler {
	return &CleanupHandler{pipeline: pipeline, reconciler: reconciler}
}

// CleanupSignals runs the full classification + dedup + deletion pass.
func (h *CleanupHandler) CleanupSignals(c *fiber.Ctx) error {
	report, err := h.pipeline.Run()
	if err != nil {
		metrics.CleanupRuns.WithLabelValues("error").Inc()
		logger.Error("Cleanup pipeline failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.CleanupRuns.WithLabelValues("ok").Inc()
	metrics.SignalsDeleted.Add(float64(report.Deleted))
	for reason, count := range report.Breakdown {
		metrics.CleanupCandidates.WithLabelValues(reason).Add(float64(count))
	}

	return c.JSON(fiber.Map{
		"deleted":       report.Deleted,
		"total_matched": report.TotalMatched,
		"breakdown":     report.Breakdown,
		"message":       fmt.Sprintf("Deleted %d of %d matched signals", report.Deleted, report.TotalMatched),
	})
}

// CleanupCompetitorFirms reconciles the firm registry against the exclusion
// and canonical allow-lists.
func (h *CleanupHandler) CleanupCompetitorFirms(c *fiber.Ctx) error {
	report, err := h.reconciler.Reconcile()
	if err != nil {
		logger.Error("Firm reconciliation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.FirmsDeactivated.Add(float64(report.Deactivated))
	metrics.FirmsSeeded.Add(float64(report.Seeded))

	return c.JSON(fiber.Map{
		"success":          true,
		"deactivated":      report.Deactivated,
		"deactivatedFirms": report.DeactivatedFirms,
		"seeded":           report.Seeded,
		"skipped":          report.Skipped,
		"skippedFirms":     report.SkippedFirms,
		"message": fmt.Sprintf("Deactivated %d firms, seeded %d, skipped %d",
			report.Deactivated, report.Seeded, report.Skipped),
	})
}
