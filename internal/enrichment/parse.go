package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/signal-desk/backend/internal/storage/models"
)

// ErrMalformedResponse marks provider output that could not be parsed.
// Distinct from transport failures: retrying the same request is useless.
var ErrMalformedResponse = errors.New("malformed provider response")

type batchItem struct {
	SignalID    string                    `json:"signal_id"`
	Predictions []models.ClientPrediction `json:"predictions"`
}

// parseBatchResponse extracts per-signal predictions from free-form provider
// text. It first tries a strict parse of the whole body, then falls back to
// the first array-shaped JSON substring, tolerating surrounding commentary.
func parseBatchResponse(content string) ([]batchItem, error) {
	trimmed := strings.TrimSpace(content)

	var items []batchItem
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return items, nil
	}

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return items, nil
}
