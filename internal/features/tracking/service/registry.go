package service

import (
	"fmt"
	"sync"

	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/ports"
)

// Registry maps each carrier to exactly one adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Carrier]ports.CarrierAdapter
}

// NewRegistry creates a Registry holding the given adapters.
func NewRegistry(adapters ...ports.CarrierAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[domain.Carrier]ports.CarrierAdapter)}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. Unknown carriers and duplicates are rejected.
func (r *Registry) Register(adapter ports.CarrierAdapter) error {
	if adapter == nil {
		return fmt.Errorf("register adapter: nil adapter")
	}

	carrier := adapter.Carrier()
	if !carrier.IsKnown() {
		return fmt.Errorf("register adapter: %w: %q", ErrCarrierNotSupported, carrier)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[carrier]; exists {
		return fmt.Errorf("register adapter: carrier %s already registered", carrier)
	}
	r.adapters[carrier] = adapter
	return nil
}

// Lookup returns the adapter registered for carrier.
func (r *Registry) Lookup(carrier domain.Carrier) (ports.CarrierAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[carrier]
	return a, ok
}

// Carriers lists registered carriers in KnownCarriers order.
func (r *Registry) Carriers() []domain.Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Carrier, 0, len(r.adapters))
	for _, c := range domain.KnownCarriers {
		if _, ok := r.adapters[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}
