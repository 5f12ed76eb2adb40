package cleanup

import (
	"go.uber.org/zap"

	"github.com/signal-desk/backend/pkg/logger"
)

// SignalDeleter issues one bounded batch delete and reports rows removed.
type SignalDeleter interface {
	DeleteSignalsByIDs(ids []string) (int64, error)
}

// Report is the outcome of one cleanup run. Deleted counts rows actually
// removed; TotalMatched counts candidates identified. They diverge when a
// delete chunk fails or a candidate vanished between fetch and delete.
type Report struct {
	Deleted      int            `json:"deleted"`
	TotalMatched int            `json:"total_matched"`
	Breakdown    map[string]int `json:"breakdown"`
}

// Executor deletes the unioned candidate set in fixed-size chunks, one store
// call per chunk, sequentially. A failed chunk is logged and skipped; the
// remaining chunks still run.
type Executor struct {
	store     SignalDeleter
	chunkSize int
}

func NewExecutor(store SignalDeleter, chunkSize int) *Executor {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Executor{store: store, chunkSize: chunkSize}
}

func (e *Executor) Execute(set *CandidateSet) Report {
	report := Report{
		TotalMatched: set.Len(),
		Breakdown:    set.Breakdown(),
	}

	ids := set.IDs()
	for start := 0; start < len(ids); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		deleted, err := e.store.DeleteSignalsByIDs(chunk)
		if err != nil {
			logger.Error("Delete chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			continue
		}

		report.Deleted += int(deleted)
	}

	logger.Info("Deletion pass complete",
		zap.Int("deleted", report.Deleted),
		zap.Int("total_matched", report.TotalMatched),
	)

	return report
}
