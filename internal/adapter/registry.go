package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vietddude/orb/internal/core/domain"
)

// Registry maps object identities to servants for one adapter.
// Entries leave only through Deactivate, Take or Drain.
type Registry struct {
	mu       sync.RWMutex
	servants map[domain.ObjectID]Servant
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{servants: make(map[domain.ObjectID]Servant)}
}

// Activate binds id to s.
func (r *Registry) Activate(id domain.ObjectID, s Servant) error {
	if baseOf(s) == nil {
		return ErrNilServant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servants[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, id)
	}
	r.servants[id] = s
	return nil
}

// Find returns the servant bound to id.
func (r *Registry) Find(id domain.ObjectID) (Servant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.servants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Deactivate removes the binding for id.
func (r *Registry) Deactivate(id domain.ObjectID) error {
	_, err := r.Take(id)
	return err
}

// Take removes the binding for id and returns its servant.
func (r *Registry) Take(id domain.ObjectID) (Servant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.servants, id)
	return s, nil
}

// Contains reports whether id is bound.
func (r *Registry) Contains(id domain.ObjectID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.servants[id]
	return ok
}

// Len returns the number of active bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servants)
}

// IDs returns the active identities in sorted order.
func (r *Registry) IDs() []domain.ObjectID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.ObjectID, 0, len(r.servants))
	for id := range r.servants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Drain removes and returns every binding.
func (r *Registry) Drain() map[domain.ObjectID]Servant {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.servants
	r.servants = make(map[domain.ObjectID]Servant)
	return drained
}
