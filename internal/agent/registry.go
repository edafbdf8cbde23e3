package agent

import (
	"fmt"
	"sync"
)

// Registry manages available agents.
type Registry struct {
	mu       sync.RWMutex
	agents   map[Kind]Agent
	order    []Kind
	fallback Kind
}

// NewRegistry creates a registry holding agents in the given order.
func NewRegistry(agents ...Agent) (*Registry, error) {
	r := &Registry{agents: make(map[Kind]Agent, len(agents))}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an agent to the registry. The first registered agent
// becomes the fallback.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := a.Kind()
	if _, exists := r.agents[kind]; exists {
		return fmt.Errorf("agent already registered: %s", kind)
	}

	r.agents[kind] = a
	r.order = append(r.order, kind)
	if r.fallback == "" {
		r.fallback = kind
	}

	return nil
}

// Get returns an agent by kind.
func (r *Registry) Get(kind Kind) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrUnknownAgent, kind)
	}

	return a, nil
}

// Fallback returns the kind used when nothing else names one.
func (r *Registry) Fallback() Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.fallback
}

// Kinds lists registered agents in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Kind(nil), r.order...)
}
