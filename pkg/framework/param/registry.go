package param

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateParameter is returned when a parameter ID or key is registered twice.
var ErrDuplicateParameter = errors.New("duplicate parameter")

// Registry manages plugin parameters. The mutex guards the registry layout
// only; parameter values are atomic and read without locking.
type Registry struct {
	params map[uint32]*Parameter
	keys   map[string]uint32
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		keys:   make(map[string]uint32),
		order:  make([]uint32, 0),
	}
}

// Add registers new parameters. Nothing is added when any ID or key is
// already taken.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("%w: id %d", ErrDuplicateParameter, p.ID)
		}
		if _, exists := r.keys[p.Key]; exists || seen[p.Key] {
			return fmt.Errorf("%w: key %q", ErrDuplicateParameter, p.Key)
		}
		seen[p.Key] = true
	}

	for _, p := range params {
		r.params[p.ID] = p
		r.keys[p.Key] = p.ID
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup retrieves a parameter by key
func (r *Registry) Lookup(key string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[key]
	if !ok {
		return nil
	}
	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}

	id := r.order[index]
	return r.params[id]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}

// Reset restores every parameter to its default.
func (r *Registry) Reset() {
	for _, p := range r.All() {
		p.Reset()
	}
}

// Snapshot returns the current plain values keyed by parameter key.
func (r *Registry) Snapshot() map[string]float64 {
	all := r.All()
	out := make(map[string]float64, len(all))
	for _, p := range all {
		out[p.Key] = p.Value()
	}
	return out
}
