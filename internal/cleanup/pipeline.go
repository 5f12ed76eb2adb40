package cleanup

import (
	"fmt"

	"github.com/signal-desk/backend/internal/storage/models"
)

// SignalSource fetches signals of the given types, newest first.
type SignalSource interface {
	SignalsByTypes(types []models.SignalType) ([]models.Signal, error)
}

type Store interface {
	SignalSource
	SignalDeleter
}

// Pipeline is the offline maintenance pass: classification rules, then URL
// deduplication, then chunked deletion of the unioned candidate set.
// Re-running is idempotent since deleted rows are absent from the next fetch.
type Pipeline struct {
	store    Store
	engine   *Engine
	executor *Executor
}

func NewPipeline(store Store, rules []Rule, chunkSize int) *Pipeline {
	return &Pipeline{
		store:    store,
		engine:   NewEngine(rules),
		executor: NewExecutor(store, chunkSize),
	}
}

func (p *Pipeline) Run() (Report, error) {
	signals, err := p.store.SignalsByTypes(models.AllTypes())
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch signals: %w", err)
	}

	set := NewCandidateSet()
	p.engine.Evaluate(signals, set)
	Deduplicate(signals, set)

	return p.executor.Execute(set), nil
}
