// Package worker holds background loops run by the server.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/infra/storage"
)

// Republisher keeps published names bound to the server's references. It
// restores bindings lost by the naming backend (a flushed Redis, a restored
// database) and reclaims names rebound elsewhere only when they vanish.
type Republisher struct {
	naming   storage.NamingRepository
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	bindings map[string]domain.Ref
}

// NewRepublisher creates a republisher. A non-positive interval disables the loop.
func NewRepublisher(naming storage.NamingRepository, interval time.Duration, log *slog.Logger) *Republisher {
	if log == nil {
		log = slog.Default()
	}
	return &Republisher{
		naming:   naming,
		interval: interval,
		log:      log,
		bindings: make(map[string]domain.Ref),
	}
}

// Track records a binding to keep alive.
func (r *Republisher) Track(name string, ref domain.Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[name] = ref
}

// Untrack stops keeping name alive.
func (r *Republisher) Untrack(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
}

// Names returns the tracked names, sorted.
func (r *Republisher) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start runs the republish loop until ctx is done.
func (r *Republisher) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Republish(ctx)
		}
	}
}

// Republish rebinds every tracked name missing from the naming service and
// returns how many were restored.
func (r *Republisher) Republish(ctx context.Context) int {
	r.mu.Lock()
	snapshot := make(map[string]domain.Ref, len(r.bindings))
	for name, ref := range r.bindings {
		snapshot[name] = ref
	}
	r.mu.Unlock()

	restored := 0
	for name, ref := range snapshot {
		current, err := r.naming.Resolve(ctx, name)
		switch {
		case err == nil:
			if current != ref {
				r.log.Debug("Name bound elsewhere, leaving it", "name", name, "ref", current.String())
			}
			continue
		case !errors.Is(err, storage.ErrNameNotFound):
			r.log.Warn("Failed to check binding", "name", name, "error", err)
			continue
		}

		if err := r.naming.Bind(ctx, name, ref); err != nil {
			r.log.Warn("Failed to republish name", "name", name, "error", err)
			continue
		}
		restored++
		r.log.Info("Republished name", "name", name, "ref", ref.String())
	}
	return restored
}
