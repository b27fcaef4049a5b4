package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/orb/internal/core/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateHolding, StateActive, true},
		{StateActive, StateHolding, true},
		{StateActive, StateDiscarding, true},
		{StateDiscarding, StateActive, true},
		{StateActive, StateInactive, true},
		{StateInactive, StateActive, false},
		{StateInactive, StateHolding, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestManager_DispatchGatedByState(t *testing.T) {
	m := NewManager(nil)
	a, err := m.Create("company", domain.PersistentRetain)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := a.ActivateWithID("company", &echoServant{name: "acme"}); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	req := func() *Request { return &Request{Operation: "name", ObjectID: "company"} }

	if _, err := m.Dispatch(ctx, "company", req()); !errors.Is(err, ErrAdapterHolding) || !IsTransient(err) {
		t.Errorf("Expected transient ErrAdapterHolding, got %v", err)
	}

	if err := m.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	result, err := m.Dispatch(ctx, "company", req())
	if err != nil || result != "acme:name" {
		t.Fatalf("Dispatch = (%v, %v)", result, err)
	}

	if _, err := m.Dispatch(ctx, "nope", req()); !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("Expected ErrAdapterNotFound, got %v", err)
	}
	if _, err := m.Dispatch(ctx, "company", &Request{ObjectID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := m.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if _, err := m.Dispatch(ctx, "company", req()); !errors.Is(err, ErrAdapterDiscarding) || !IsTransient(err) {
		t.Errorf("Expected transient ErrAdapterDiscarding, got %v", err)
	}
}

func TestManager_CreateLookupDestroy(t *testing.T) {
	m := NewManager(nil)
	if _, err := m.Create("employees", domain.TransientRetain); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Create("employees", domain.TransientRetain); !errors.Is(err, ErrAdapterExists) {
		t.Errorf("Expected ErrAdapterExists, got %v", err)
	}

	a, err := m.Lookup("employees")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	s := &echoServant{}
	if _, err := a.Activate(s); err != nil {
		t.Fatal(err)
	}

	if err := m.Destroy("employees"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if s.Active() {
		t.Error("Servant still active after Destroy")
	}
	if _, err := m.Lookup("employees"); !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("Expected ErrAdapterNotFound, got %v", err)
	}
	if err := m.Destroy("employees"); !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("Expected ErrAdapterNotFound on second Destroy, got %v", err)
	}
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(nil)
	a, _ := m.Create("company", domain.PersistentRetain)
	b, _ := m.Create("employees", domain.TransientRetain)
	_ = m.Activate()

	m.Shutdown()
	m.Shutdown()

	if m.State() != StateInactive {
		t.Errorf("State = %s, want inactive", m.State())
	}
	if !a.Destroyed() || !b.Destroyed() {
		t.Error("Adapters not shut down")
	}
	if err := m.Activate(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
	if _, err := m.Create("late", domain.TransientRetain); !errors.Is(err, ErrAdapterDestroyed) {
		t.Errorf("Expected ErrAdapterDestroyed, got %v", err)
	}
	if len(m.Adapters()) != 0 {
		t.Error("Adapters() not empty after shutdown")
	}
}
