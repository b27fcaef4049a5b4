// Package adapter implements object adapters: servant activation, retention
// and dispatch under a fixed lifespan/retention policy.
//
// This package contains:
//   - Registry: identity -> servant table of one adapter
//   - Adapter: policy-tagged activation, deactivation and dispatch
//   - LocalRef: collocated handle to an active servant
//   - DeferredBinding: write-once slot holding a child adapter
//   - Manager: named adapter table with a processing state machine
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/metrics"
)

// Adapter activates servants under one immutable policy.
type Adapter struct {
	name     string
	policy   domain.Policy
	instance string
	registry *Registry
	locator  Locator
	log      *slog.Logger

	mu        sync.Mutex
	nextID    uint64
	destroyed bool
	locals    map[domain.ObjectID][]*LocalRef
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLocator sets the per-call servant locator consulted by NonRetain
// adapters when an identity has no active binding.
func WithLocator(l Locator) Option {
	return func(a *Adapter) {
		a.locator = l
	}
}

// WithLogger sets the adapter logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// NewAdapter creates an adapter. The policy cannot change afterwards.
func NewAdapter(name string, policy domain.Policy, opts ...Option) (*Adapter, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("adapter %s: %w", name, err)
	}

	a := &Adapter{
		name:     name,
		policy:   policy,
		instance: uuid.NewString()[:8],
		registry: NewRegistry(),
		log:      slog.Default(),
		locals:   make(map[domain.ObjectID][]*LocalRef),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("adapter", name, "policy", policy.String())
	return a, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.name
}

// Policy returns the adapter policy.
func (a *Adapter) Policy() domain.Policy {
	return a.policy
}

// Len returns the number of active servants.
func (a *Adapter) Len() int {
	return a.registry.Len()
}

// IDs returns the active identities.
func (a *Adapter) IDs() []domain.ObjectID {
	return a.registry.IDs()
}

// Destroyed reports whether Shutdown has run.
func (a *Adapter) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

// Activate binds s under a freshly allocated identity. Identities increase
// monotonically per adapter instance and are never reused while live.
func (a *Adapter) Activate(s Servant) (domain.ObjectID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return "", fmt.Errorf("activate in %s: %w", a.name, ErrAdapterDestroyed)
	}

	id := a.allocateID()
	if err := a.bind(id, s); err != nil {
		return "", err
	}
	return id, nil
}

// ActivateWithID binds s under a caller chosen identity. Persistent adapters
// use it to keep references stable across process restarts.
func (a *Adapter) ActivateWithID(id domain.ObjectID, s Servant) error {
	if id == "" {
		return fmt.Errorf("activate in %s: empty object id", a.name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("activate %s in %s: %w", id, a.name, ErrAdapterDestroyed)
	}
	return a.bind(id, s)
}

// allocateID skips identities already taken by ActivateWithID.
func (a *Adapter) allocateID() domain.ObjectID {
	for {
		a.nextID++
		var id domain.ObjectID
		switch a.policy.Lifespan {
		case domain.LifespanTransient:
			id = domain.ObjectID(a.instance + "-" + strconv.FormatUint(a.nextID, 10))
		default:
			id = domain.ObjectID(strconv.FormatUint(a.nextID, 10))
		}
		if !a.registry.Contains(id) {
			return id
		}
	}
}

func (a *Adapter) bind(id domain.ObjectID, s Servant) error {
	base := baseOf(s)
	if base == nil {
		return ErrNilServant
	}
	if err := base.claim(a, id); err != nil {
		return err
	}
	if err := a.registry.Activate(id, s); err != nil {
		base.release(a)
		return fmt.Errorf("activate in %s: %w", a.name, err)
	}

	metrics.ActivationsTotal.WithLabelValues(a.name, string(a.policy.Lifespan)).Inc()
	metrics.ServantsActive.WithLabelValues(a.name).Inc()
	a.log.Debug("Servant activated", "object_id", id)
	return nil
}

// Deactivate removes the binding for id. For Transient+Retain adapters every
// outstanding LocalRef to the servant is invalidated.
func (a *Adapter) Deactivate(id domain.ObjectID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.registry.Take(id)
	if err != nil {
		return fmt.Errorf("deactivate in %s: %w", a.name, err)
	}
	a.unbind(id, s)
	return nil
}

func (a *Adapter) unbind(id domain.ObjectID, s Servant) {
	s.servantBase().release(a)
	a.invalidateLocals(id)
	metrics.DeactivationsTotal.WithLabelValues(a.name).Inc()
	metrics.ServantsActive.WithLabelValues(a.name).Dec()
	a.log.Debug("Servant deactivated", "object_id", id)
}

// Find returns the servant bound to id in the active object map.
func (a *Adapter) Find(id domain.ObjectID) (Servant, error) {
	s, err := a.registry.Find(id)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", a.name, err)
	}
	return s, nil
}

// Resolve finds the servant that should handle a call for id.
func (a *Adapter) Resolve(ctx context.Context, id domain.ObjectID) (Servant, error) {
	s, err := a.Find(id)
	if err == nil {
		return s, nil
	}

	switch a.policy.Retention {
	case domain.RetentionNonRetain:
		if a.locator == nil {
			return nil, err
		}
		located, locErr := a.locator.Locate(ctx, id)
		if locErr != nil {
			return nil, fmt.Errorf("locate %s in %s: %w", id, a.name, locErr)
		}
		if located == nil {
			return nil, fmt.Errorf("locate in %s: %w: %s", a.name, ErrNotFound, id)
		}
		return located, nil
	default:
		return nil, err
	}
}

// Dispatch delivers req to the servant for req.ObjectID.
func (a *Adapter) Dispatch(ctx context.Context, req *Request) (any, error) {
	start := time.Now()
	req.Adapter = a

	s, err := a.Resolve(ctx, req.ObjectID)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(a.name, req.Operation, "not_found").Inc()
		return nil, err
	}

	result, err := s.Dispatch(ctx, req)
	metrics.DispatchLatency.WithLabelValues(a.name, req.Operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(a.name, req.Operation, "error").Inc()
		return nil, err
	}
	metrics.DispatchTotal.WithLabelValues(a.name, req.Operation, "ok").Inc()
	return result, nil
}

// Reference builds an external reference to id served at endpoint.
func (a *Adapter) Reference(id domain.ObjectID, endpoint string) domain.Ref {
	return domain.Ref{
		Endpoint: endpoint,
		Adapter:  a.name,
		ObjectID: id,
		Lifespan: a.policy.Lifespan,
	}
}

// Shutdown deactivates every servant. Safe to call more than once.
func (a *Adapter) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.destroyed = true

	drained := a.registry.Drain()
	for id, s := range drained {
		a.unbind(id, s)
	}
	a.log.Info("Adapter shut down", "deactivated", len(drained))
}
