package schedule

import (
	"sync"

	"github.com/foodcost/pricefeed/collect"
	"github.com/foodcost/pricefeed/errors"
	"github.com/foodcost/pricefeed/market"
)

// Registry holds the collector instances a scheduler dispatches to,
// keyed by source kind. It is constructed by the host and injected, not
// ambient state, so schedulers stay testable in isolation.
type Registry struct {
	mu         sync.RWMutex
	collectors map[market.SourceKind]collect.Collector
}

// NewRegistry creates an empty collector registry.
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[market.SourceKind]collect.Collector)}
}

// Register adds a collector under its own kind, replacing any previous
// collector of that kind.
func (r *Registry) Register(c collect.Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Kind()] = c
}

// Get returns the collector for a source kind.
func (r *Registry) Get(kind market.SourceKind) (collect.Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[kind]
	return c, ok
}

// Kinds lists the registered source kinds.
func (r *Registry) Kinds() []market.SourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]market.SourceKind, 0, len(r.collectors))
	for k := range r.collectors {
		kinds = append(kinds, k)
	}
	return kinds
}

// CloseAll releases every registered collector's scoped resources
// (browser sessions, OCR engine handles). Hosts call this at shutdown
// after stopping the scheduler.
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	for kind, c := range r.collectors {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "closing %s collector", kind)
		}
	}
	return firstErr
}
