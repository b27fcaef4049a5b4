package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/orb/internal/core/domain"
)

var (
	// ErrNameNotFound is returned when a name has no binding
	ErrNameNotFound = errors.New("name not found")

	// ErrTransientRef is returned when a transient reference is published by name
	ErrTransientRef = errors.New("transient references cannot be bound by name")

	// ErrInvalidBinding is returned for empty names or incomplete references
	ErrInvalidBinding = errors.New("invalid naming binding")
)

// Binding is one name -> reference entry of the naming service.
type Binding struct {
	Name      string     `json:"name"`
	Ref       domain.Ref `json:"ref"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NamingRepository is the naming/directory collaborator.
type NamingRepository interface {
	// Bind publishes ref under name, replacing any previous binding
	Bind(ctx context.Context, name string, ref domain.Ref) error

	// Resolve returns the reference bound to name
	Resolve(ctx context.Context, name string) (domain.Ref, error)

	// Unbind removes the binding for name
	Unbind(ctx context.Context, name string) error

	// List returns every binding ordered by name
	List(ctx context.Context) ([]Binding, error)

	// Close releases backend resources
	Close() error
}

// ValidateBinding checks a binding before it is stored.
func ValidateBinding(name string, ref domain.Ref) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBinding)
	}
	if ref.Adapter == "" || ref.ObjectID == "" {
		return fmt.Errorf("%w: incomplete reference %s", ErrInvalidBinding, ref)
	}
	if ref.Lifespan != domain.LifespanPersistent {
		return fmt.Errorf("%w: %s", ErrTransientRef, name)
	}
	return nil
}
