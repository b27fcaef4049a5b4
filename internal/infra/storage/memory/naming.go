package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/infra/storage"
	"github.com/vietddude/orb/internal/metrics"
)

// NamingRepo implements storage.NamingRepository in process memory.
type NamingRepo struct {
	mu       sync.RWMutex
	bindings map[string]storage.Binding
}

func NewNamingRepo() *NamingRepo {
	return &NamingRepo{bindings: make(map[string]storage.Binding)}
}

func (r *NamingRepo) Bind(ctx context.Context, name string, ref domain.Ref) error {
	if err := storage.ValidateBinding(name, ref); err != nil {
		metrics.NamingOperationsTotal.WithLabelValues("memory", "bind", "rejected").Inc()
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[name] = storage.Binding{Name: name, Ref: ref, UpdatedAt: time.Now()}
	metrics.NamingOperationsTotal.WithLabelValues("memory", "bind", "ok").Inc()
	return nil
}

func (r *NamingRepo) Resolve(ctx context.Context, name string) (domain.Ref, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	if !ok {
		metrics.NamingOperationsTotal.WithLabelValues("memory", "resolve", "not_found").Inc()
		return domain.Ref{}, fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	metrics.NamingOperationsTotal.WithLabelValues("memory", "resolve", "ok").Inc()
	return b.Ref, nil
}

func (r *NamingRepo) Unbind(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[name]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNameNotFound, name)
	}
	delete(r.bindings, name)
	metrics.NamingOperationsTotal.WithLabelValues("memory", "unbind", "ok").Inc()
	return nil
}

func (r *NamingRepo) List(ctx context.Context) ([]storage.Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]storage.Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *NamingRepo) Close() error {
	return nil
}
