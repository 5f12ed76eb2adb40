package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-desk/backend/internal/llm"
	"github.com/signal-desk/backend/internal/storage/models"
)

// fakeCompleter answers every signal mentioned in the prompt with one
// prediction, or fails per a scripted response list.
type fakeCompleter struct {
	calls     []string
	responses []string // consumed per call; empty = echo predictions
	errs      []error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	call := len(f.calls)
	f.calls = append(f.calls, req.UserPrompt)

	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.responses) && f.responses[call] != "" {
		return &llm.CompletionResponse{Content: f.responses[call]}, nil
	}

	var items []batchItem
	for _, id := range signalIDsIn(req.UserPrompt) {
		items = append(items, batchItem{
			SignalID: id,
			Predictions: []models.ClientPrediction{
				{CompanyName: "Acme Bio", Confidence: "High", Reasoning: "test"},
			},
		})
	}
	data, _ := json.Marshal(items)
	return &llm.CompletionResponse{Content: string(data)}, nil
}

var signalIDPattern = regexp.MustCompile(`signal_id: (\S+)`)

func signalIDsIn(prompt string) []string {
	var ids []string
	for _, m := range signalIDPattern.FindAllStringSubmatch(prompt, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func makeSignals(n int) []models.Signal {
	signals := make([]models.Signal, n)
	for i := range signals {
		signals[i] = models.Signal{
			ID:      fmt.Sprintf("sig-%d", i),
			Type:    models.TypeCompetitorJob,
			Summary: "Clinical Research Associate role in Boston",
		}
	}
	return signals
}

func TestInferBatchCount(t *testing.T) {
	for _, tc := range []struct {
		signals int
		batches int
	}{
		{signals: 1, batches: 1},
		{signals: 10, batches: 1},
		{signals: 11, batches: 2},
		{signals: 25, batches: 3},
	} {
		completer := &fakeCompleter{}
		engine := NewEngine(completer, nil, Config{StaffingFirm: "Barrington James", BatchSize: 10})

		results := engine.Infer(context.Background(), makeSignals(tc.signals))

		assert.Len(t, completer.calls, tc.batches, "signals=%d", tc.signals)
		assert.Len(t, results, tc.signals)
	}
}

func TestInferWithoutCredentialReturnsEmpty(t *testing.T) {
	engine := NewEngine(nil, nil, Config{StaffingFirm: "Barrington James"})

	results := engine.Infer(context.Background(), makeSignals(5))

	assert.Empty(t, results)
}

func TestInferSkipsMalformedBatch(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{"Sorry, I cannot help with that."},
	}
	engine := NewEngine(completer, nil, Config{StaffingFirm: "Barrington James", BatchSize: 10})

	results := engine.Infer(context.Background(), makeSignals(15))

	// First batch unparseable, second succeeds with its 5 signals.
	require.Len(t, completer.calls, 2)
	assert.Len(t, results, 5)
	for id := range results {
		assert.Contains(t, []string{"sig-10", "sig-11", "sig-12", "sig-13", "sig-14"}, id)
	}
}

func TestInferToleratesTransportFailure(t *testing.T) {
	completer := &fakeCompleter{
		errs: []error{errors.New("connection reset")},
	}
	engine := NewEngine(completer, nil, Config{StaffingFirm: "Barrington James", BatchSize: 10})

	results := engine.Infer(context.Background(), makeSignals(12))

	require.Len(t, completer.calls, 2)
	assert.Len(t, results, 2)
}

func TestInferDropsEmptyPredictionLists(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{`[{"signal_id": "sig-0", "predictions": []}, {"signal_id": "sig-1", "predictions": [{"company_name": "Acme", "confidence": "Low", "reasoning": "weak"}]}]`},
	}
	engine := NewEngine(completer, nil, Config{StaffingFirm: "Barrington James", BatchSize: 10})

	results := engine.Infer(context.Background(), makeSignals(2))

	assert.Len(t, results, 1)
	assert.Contains(t, results, "sig-1")
}

func TestPromptScrubsStaffingFirm(t *testing.T) {
	completer := &fakeCompleter{}
	engine := NewEngine(completer, nil, Config{StaffingFirm: "Barrington James", BatchSize: 10})

	signals := []models.Signal{{
		ID:      "s1",
		Type:    models.TypeCompetitorJob,
		Summary: "BARRINGTON JAMES is hiring a CRA for a sponsor in Cambridge",
	}}

	engine.Infer(context.Background(), signals)

	require.Len(t, completer.calls, 1)
	_, description, found := strings.Cut(completer.calls[0], "description:")
	require.True(t, found)
	assert.NotContains(t, strings.ToLower(description), "barrington james")
}

func TestScrubFirmNameEscapesMetacharacters(t *testing.T) {
	out := scrubFirmName("Hiring via Smith (Pharma) Ltd. today", "Smith (Pharma) Ltd.")
	assert.Equal(t, "Hiring via  today", out)
}

type fakeCache struct {
	entries map[string][]models.ClientPrediction
}

func (f *fakeCache) SetPredictions(_ context.Context, signalID string, predictions []models.ClientPrediction, _ time.Duration) error {
	if f.entries == nil {
		f.entries = make(map[string][]models.ClientPrediction)
	}
	f.entries[signalID] = predictions
	return nil
}

func TestInferWritesCache(t *testing.T) {
	cache := &fakeCache{}
	engine := NewEngine(&fakeCompleter{}, cache, Config{StaffingFirm: "Barrington James", BatchSize: 10})

	engine.Infer(context.Background(), makeSignals(3))

	assert.Len(t, cache.entries, 3)
}
