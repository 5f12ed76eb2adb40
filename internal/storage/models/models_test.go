package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndClientNameFallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		detail Detail
		want   string
	}{
		{
			name:   "company_name wins",
			detail: Detail{"company_name": "Acme Bio", "sponsor": "Other Co"},
			want:   "Acme Bio",
		},
		{
			name:   "falls back to sponsor",
			detail: Detail{"company_name": "", "sponsor": "Vertex"},
			want:   "Vertex",
		},
		{
			name:   "falls back to lead_sponsor",
			detail: Detail{"sponsor": "  ", "lead_sponsor": "Moderna"},
			want:   "Moderna",
		},
		{
			name:   "falls back to acquirer_name",
			detail: Detail{"acquirer_name": "Pfizer"},
			want:   "Pfizer",
		},
		{
			name:   "whitespace-only values are skipped",
			detail: Detail{"company_name": "   ", "sponsor": "\t", "lead_sponsor": "Roche"},
			want:   "Roche",
		},
		{
			name:   "empty detail",
			detail: Detail{},
			want:   "",
		},
		{
			name:   "nil detail",
			detail: nil,
			want:   "",
		},
		{
			name:   "non-string values are ignored",
			detail: Detail{"company_name": 42, "sponsor": "Novartis"},
			want:   "Novartis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.EndClientName())
		})
	}
}

func TestDedupKey(t *testing.T) {
	withJobURL := Signal{
		SourceURL: "https://example.com/source",
		Detail:    Detail{"job_url": "https://jobs.example.com/123"},
	}
	assert.Equal(t, "https://jobs.example.com/123", withJobURL.DedupKey())

	sourceOnly := Signal{SourceURL: "https://example.com/source"}
	assert.Equal(t, "https://example.com/source", sourceOnly.DedupKey())

	neither := Signal{}
	assert.Equal(t, "", neither.DedupKey())
}

func TestSignalUpdateEmpty(t *testing.T) {
	assert.True(t, SignalUpdate{}.Empty())

	status := StatusClaimed
	assert.False(t, SignalUpdate{Status: &status}.Empty())

	owner := "alice"
	assert.False(t, SignalUpdate{ClaimedBy: &owner}.Empty())
}
