package adapter

import "errors"

// Registry misuse.
var (
	ErrDuplicateIdentity = errors.New("object identity already active")
	ErrNotFound          = errors.New("object not found")
	ErrServantActive     = errors.New("servant already active")
	ErrNilServant        = errors.New("nil servant")
)

// ErrUnknownOperation is returned by servants for operations they do not implement.
var ErrUnknownOperation = errors.New("unknown operation")

// Binding protocol misuse. Never retried.
var (
	ErrAlreadyBound = errors.New("deferred binding already set")
	ErrUnbound      = errors.New("deferred binding not yet set")
	ErrNilAdapter   = errors.New("nil adapter")
)

// Adapter and manager lifecycle.
var (
	ErrAdapterDestroyed  = errors.New("adapter destroyed")
	ErrAdapterExists     = errors.New("adapter already exists")
	ErrAdapterNotFound   = errors.New("adapter not found")
	ErrAdapterHolding    = errors.New("adapter manager is holding requests")
	ErrAdapterDiscarding = errors.New("adapter manager is discarding requests")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidName       = errors.New("invalid adapter name")
)

// IsTransient reports whether err means the server side cannot accept calls
// right now (starting up or shutting down).
func IsTransient(err error) bool {
	return errors.Is(err, ErrAdapterHolding) || errors.Is(err, ErrAdapterDiscarding)
}
