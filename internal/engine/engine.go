// Package engine abstracts the LLM backends behind a single completion
// interface so agents, graders, and committees stay provider-agnostic.
package engine

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// Completion is a single model completion with its attributed cost.
type Completion struct {
	Text    string
	CostUSD float64
}

// Engine produces completions for a prompt.
type Engine interface {
	// ID returns the catalog identifier for this engine.
	ID() string
	// Complete sends the prompt and returns the model's completion.
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Registry holds the configured engines keyed by catalog ID.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine, replacing any previous engine with the same ID.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.ID()] = e
}

// Get returns the engine with the given ID.
func (r *Registry) Get(id string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[id]
	if !ok {
		return nil, eris.Errorf("engine: unknown engine %q", id)
	}
	return e, nil
}

// IDs returns the registered engine IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	return ids
}
