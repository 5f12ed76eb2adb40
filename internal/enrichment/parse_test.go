package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchResponseStrictJSON(t *testing.T) {
	content := `[{"signal_id": "s1", "predictions": [{"company_name": "Vertex", "confidence": "High", "reasoning": "CF trial site"}]}]`

	items, err := parseBatchResponse(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].SignalID)
	assert.Equal(t, "Vertex", items[0].Predictions[0].CompanyName)
}

func TestParseBatchResponseWithCommentary(t *testing.T) {
	content := "Here are my predictions:\n\n" +
		`[{"signal_id": "s1", "predictions": [{"company_name": "Moderna", "confidence": "Medium", "reasoning": "mRNA platform role"}]}]` +
		"\n\nLet me know if you need more detail."

	items, err := parseBatchResponse(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Moderna", items[0].Predictions[0].CompanyName)
}

func TestParseBatchResponseNoArray(t *testing.T) {
	_, err := parseBatchResponse("I could not determine any end clients for these signals.")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseBatchResponseInvalidJSON(t *testing.T) {
	_, err := parseBatchResponse(`[{"signal_id": "s1", "predictions": [}]`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
