package cleanup

import (
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

// Deduplicate collapses job signals that point at the same underlying
// posting. Input must be ordered newest first: the first occurrence of a
// dedup key survives, every later one becomes a deletion candidate. Signals
// without a job URL or source URL are exempt.
func Deduplicate(signals []models.Signal, set *CandidateSet) {
	seen := make(map[string]struct{})
	duplicates := 0

	for i := range signals {
		s := &signals[i]
		if !s.Type.IsJobPosting() {
			continue
		}

		key := s.DedupKey()
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			set.Add(s.ID, ReasonDuplicateJobURL)
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}

	logger.Info("Deduplication pass complete",
		zap.Int("unique_keys", len(seen)),
		zap.Int("duplicates", duplicates),
	)
}
