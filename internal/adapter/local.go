package adapter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vietddude/orb/internal/core/domain"
)

// LocalRef is a collocated handle to an object served by an adapter in the
// same process. Handles issued by Transient+Retain adapters cache the servant
// until it is deactivated; all other handles resolve through the adapter on
// every call.
type LocalRef struct {
	adapter *Adapter
	id      domain.ObjectID
	cached  atomic.Pointer[Servant]
}

// Local returns a collocated handle for id.
func (a *Adapter) Local(id domain.ObjectID) (*LocalRef, error) {
	ref := &LocalRef{adapter: a, id: id}

	switch a.policy {
	case domain.TransientRetain:
		a.mu.Lock()
		defer a.mu.Unlock()
		s, err := a.Find(id)
		if err != nil {
			return nil, err
		}
		ref.cached.Store(&s)
		a.locals[id] = append(a.locals[id], ref)
	default:
		if a.policy.Retains() {
			if _, err := a.Find(id); err != nil {
				return nil, err
			}
		}
	}
	return ref, nil
}

// invalidateLocals requires a.mu.
func (a *Adapter) invalidateLocals(id domain.ObjectID) {
	for _, ref := range a.locals[id] {
		ref.cached.Store(nil)
	}
	delete(a.locals, id)
}

// ObjectID returns the identity the handle points at.
func (r *LocalRef) ObjectID() domain.ObjectID {
	return r.id
}

// Adapter returns the adapter that issued the handle.
func (r *LocalRef) Adapter() *Adapter {
	return r.adapter
}

// Valid reports whether a cached handle still points at an active servant.
// Uncached handles always report true.
func (r *LocalRef) Valid() bool {
	if r.adapter.policy != domain.TransientRetain {
		return true
	}
	return r.cached.Load() != nil
}

// Servant returns the servant behind the handle.
func (r *LocalRef) Servant(ctx context.Context) (Servant, error) {
	if r.adapter.policy == domain.TransientRetain {
		s := r.cached.Load()
		if s == nil {
			return nil, fmt.Errorf("local ref %s in %s: %w", r.id, r.adapter.name, ErrNotFound)
		}
		return *s, nil
	}
	return r.adapter.Resolve(ctx, r.id)
}

// Dispatch invokes op on the servant behind the handle.
func (r *LocalRef) Dispatch(ctx context.Context, op string, args map[string]any) (any, error) {
	s, err := r.Servant(ctx)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, &Request{
		Operation: op,
		Args:      args,
		ObjectID:  r.id,
		Adapter:   r.adapter,
	})
}
