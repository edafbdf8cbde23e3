package provider

import (
	"fmt"

	"github.com/valksor/go-opsdesk/internal/item"
)

// Registry is the fixed provider lookup table, built once per invocation.
type Registry struct {
	adapters map[item.ProviderID]Adapter
	order    []item.ProviderID
}

// NewRegistry indexes adapters by their ID. A later adapter with the same ID
// replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[item.ProviderID]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.ID()]; !exists {
			r.order = append(r.order, a.ID())
		}
		r.adapters[a.ID()] = a
	}
	return r
}

// Get returns the adapter for id.
func (r *Registry) Get(id item.ProviderID) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", item.ErrUnknownProvider, id)
	}
	return a, nil
}

// IDs lists the registered providers in registration order.
func (r *Registry) IDs() []item.ProviderID {
	return append([]item.ProviderID(nil), r.order...)
}
