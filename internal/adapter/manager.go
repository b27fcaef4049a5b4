package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vietddude/orb/internal/core/domain"
)

// State is the request processing state of a Manager.
type State string

const (
	// StateHolding rejects requests as transient; the initial state.
	StateHolding State = "holding"
	// StateActive dispatches requests to servants.
	StateActive State = "active"
	// StateDiscarding rejects requests as transient while the server drains.
	StateDiscarding State = "discarding"
	// StateInactive is terminal; every adapter has been shut down.
	StateInactive State = "inactive"
)

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	StateHolding:    {StateActive, StateDiscarding, StateInactive},
	StateActive:     {StateHolding, StateDiscarding, StateInactive},
	StateDiscarding: {StateActive, StateHolding, StateInactive},
	StateInactive:   {},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Manager owns the named adapters of one server process and gates request
// dispatch on its processing state.
type Manager struct {
	mu       sync.RWMutex
	state    State
	adapters map[string]*Adapter
	log      *slog.Logger
}

// NewManager creates a manager in StateHolding.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		state:    StateHolding,
		adapters: make(map[string]*Adapter),
		log:      log,
	}
}

// State returns the current processing state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Activate starts dispatching requests.
func (m *Manager) Activate() error {
	return m.transition(StateActive)
}

// Hold makes dispatch reject requests as transient.
func (m *Manager) Hold() error {
	return m.transition(StateHolding)
}

// Discard rejects requests while the server drains.
func (m *Manager) Discard() error {
	return m.transition(StateDiscarding)
}

func (m *Manager) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == to {
		return nil
	}
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.log.Info("Adapter manager state changed", "from", m.state, "to", to)
	m.state = to
	return nil
}

// Create builds and registers a named adapter.
func (m *Manager) Create(name string, policy domain.Policy, opts ...Option) (*Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateInactive {
		return nil, fmt.Errorf("create %s: %w", name, ErrAdapterDestroyed)
	}
	if _, ok := m.adapters[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterExists, name)
	}

	opts = append([]Option{WithLogger(m.log)}, opts...)
	a, err := NewAdapter(name, policy, opts...)
	if err != nil {
		return nil, err
	}
	m.adapters[name] = a
	m.log.Info("Adapter created", "adapter", name, "policy", policy.String())
	return a, nil
}

// Lookup returns the adapter registered under name.
func (m *Manager) Lookup(name string) (*Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	return a, nil
}

// Destroy shuts down and forgets the named adapter.
func (m *Manager) Destroy(name string) error {
	m.mu.Lock()
	a, ok := m.adapters[name]
	delete(m.adapters, name)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	a.Shutdown()
	return nil
}

// Adapters returns the registered adapters sorted by name.
func (m *Manager) Adapters() []*Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Adapter, 0, len(m.adapters))
	for _, a := range m.adapters {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

// Dispatch routes req to the named adapter if the manager is active.
func (m *Manager) Dispatch(ctx context.Context, adapterName string, req *Request) (any, error) {
	m.mu.RLock()
	state := m.state
	a, ok := m.adapters[adapterName]
	m.mu.RUnlock()

	switch state {
	case StateHolding:
		return nil, ErrAdapterHolding
	case StateDiscarding:
		return nil, ErrAdapterDiscarding
	case StateInactive:
		return nil, ErrAdapterDestroyed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, adapterName)
	}
	return a.Dispatch(ctx, req)
}

// Shutdown moves to StateInactive and shuts down every adapter. Idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.state == StateInactive {
		m.mu.Unlock()
		return
	}
	m.state = StateInactive
	adapters := m.adapters
	m.adapters = make(map[string]*Adapter)
	m.mu.Unlock()

	for _, a := range adapters {
		a.Shutdown()
	}
	m.log.Info("Adapter manager shut down", "adapters", len(adapters))
}
