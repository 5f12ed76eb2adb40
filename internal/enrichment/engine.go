package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/llm"
	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

// Completer is the external inference provider's completion contract.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// PredictionCache persists per-signal predictions best-effort. May be nil.
type PredictionCache interface {
	SetPredictions(ctx context.Context, signalID string, predictions []models.ClientPrediction, ttl time.Duration) error
}

type Config struct {
	StaffingFirm string
	BatchSize    int
	CacheTTL     time.Duration
}

// Engine predicts the end-client company behind staffing-firm job postings.
// Batches are processed sequentially to respect provider rate and cost
// limits; a failed batch is skipped, never fatal.
type Engine struct {
	completer Completer
	cache     PredictionCache
	cfg       Config
}

// NewEngine accepts a nil completer, which disables enrichment entirely
// (no external credential configured).
func NewEngine(completer Completer, cache PredictionCache, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Engine{completer: completer, cache: cache, cfg: cfg}
}

// Infer returns a best-effort map of signal id to ranked end-client
// predictions. It never fails: whatever was inferred before an error is
// returned, possibly an empty map.
func (e *Engine) Infer(ctx context.Context, signals []models.Signal) map[string][]models.ClientPrediction {
	results := make(map[string][]models.ClientPrediction)

	if e.completer == nil {
		logger.Warn("Enrichment disabled: no inference credential configured")
		return results
	}
	if len(signals) == 0 {
		return results
	}

	for start := 0; start < len(signals); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(signals) {
			end = len(signals)
		}
		batch := signals[start:end]

		resp, err := e.completer.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   buildBatchPrompt(batch, e.cfg.StaffingFirm),
			Temperature:  0.2,
		})
		if err != nil {
			logger.Warn("Enrichment batch request failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}

		items, err := parseBatchResponse(resp.Content)
		if err != nil {
			logger.Warn("Enrichment batch response unparseable",
				zap.Int("batch_start", start),
				zap.Error(err),
			)
			continue
		}

		for _, item := range items {
			if item.SignalID == "" || len(item.Predictions) == 0 {
				continue
			}
			results[item.SignalID] = item.Predictions
			e.cachePredictions(ctx, item.SignalID, item.Predictions)
		}
	}

	logger.Info("Enrichment complete",
		zap.Int("signals", len(signals)),
		zap.Int("enriched", len(results)),
	)

	return results
}

func (e *Engine) cachePredictions(ctx context.Context, signalID string, predictions []models.ClientPrediction) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetPredictions(ctx, signalID, predictions, e.cfg.CacheTTL); err != nil {
		logger.Warn("Failed to cache predictions",
			zap.String("signal_id", signalID),
			zap.Error(err),
		)
	}
}
