package adapter

import "sync/atomic"

// DeferredBinding is a write-once slot holding a child adapter. It lets an
// owning servant be activated and published before the child adapter it
// delegates to exists.
//
// The zero value is unset and ready to use.
type DeferredBinding struct {
	adapter atomic.Pointer[Adapter]
}

// Bind stores a. Only the first successful Bind takes effect; later calls
// fail with ErrAlreadyBound and leave the first adapter in place.
func (b *DeferredBinding) Bind(a *Adapter) error {
	if a == nil {
		return ErrNilAdapter
	}
	if !b.adapter.CompareAndSwap(nil, a) {
		return ErrAlreadyBound
	}
	return nil
}

// Get returns the bound adapter, or ErrUnbound when nothing is bound yet.
// ErrUnbound means "not configured", not a retryable fault.
func (b *DeferredBinding) Get() (*Adapter, error) {
	a := b.adapter.Load()
	if a == nil {
		return nil, ErrUnbound
	}
	return a, nil
}

// IsBound reports whether Bind has succeeded.
func (b *DeferredBinding) IsBound() bool {
	return b.adapter.Load() != nil
}
