package adapter

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vietddude/orb/internal/core/domain"
)

// Request is one operation invocation delivered to a servant.
type Request struct {
	Operation string
	Args      map[string]any
	ObjectID  domain.ObjectID
	// Adapter is the adapter dispatching the request.
	Adapter *Adapter
}

// Servant implements the business logic behind an object identity.
// Implementations embed ServantBase.
type Servant interface {
	Dispatch(ctx context.Context, req *Request) (any, error)
	servantBase() *ServantBase
}

// ServantBase records where a servant is active. Embed it by value and use
// the servant through a pointer.
type ServantBase struct {
	mu      sync.Mutex
	adapter *Adapter
	id      domain.ObjectID
}

func (b *ServantBase) servantBase() *ServantBase {
	return b
}

// baseOf returns the servant's base, or nil for a nil servant. A nil pointer
// wrapped in the interface counts as nil.
func baseOf(s Servant) *ServantBase {
	if s == nil {
		return nil
	}
	if v := reflect.ValueOf(s); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return s.servantBase()
}

// Adapter returns the adapter the servant is active in, or nil.
func (b *ServantBase) Adapter() *Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapter
}

// ObjectID returns the servant's identity, or "" when inactive.
func (b *ServantBase) ObjectID() domain.ObjectID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Active reports whether the servant is bound in some adapter.
func (b *ServantBase) Active() bool {
	return b.Adapter() != nil
}

func (b *ServantBase) claim(a *Adapter, id domain.ObjectID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adapter != nil {
		return fmt.Errorf("%w: as %s in adapter %s", ErrServantActive, b.id, b.adapter.name)
	}
	b.adapter = a
	b.id = id
	return nil
}

func (b *ServantBase) release(a *Adapter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adapter == a {
		b.adapter = nil
		b.id = ""
	}
}

// Locator resolves servants per call for NonRetain adapters.
type Locator interface {
	Locate(ctx context.Context, id domain.ObjectID) (Servant, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, id domain.ObjectID) (Servant, error)

func (f LocatorFunc) Locate(ctx context.Context, id domain.ObjectID) (Servant, error) {
	return f(ctx, id)
}
